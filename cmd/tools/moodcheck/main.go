// Command moodcheck runs the emotion classifier and reply builder offline,
// without starting the HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

const version = "0.1.0"

func main() {
	_ = godotenv.Load()

	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "moodcheck",
		Usage:   "Classify messages and preview MindHaven replies",
		Version: version,
		Commands: []*cli.Command{
			classifyCommand(),
			configCommand(),
		},
	}
}
