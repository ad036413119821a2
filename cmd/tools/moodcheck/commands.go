package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/zhouzirui/mindhaven/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mindhaven/backend/internal/config"
	"github.com/zhouzirui/mindhaven/backend/internal/model/helpline"
	"github.com/zhouzirui/mindhaven/backend/internal/service/reply"
)

// report is one classified message.
type report struct {
	Message  string                    `json:"message"`
	Emotion  emotion.Label             `json:"emotion"`
	Fallback bool                      `json:"fallback"`
	Scores   map[emotion.Label]float64 `json:"scores"`
	Crisis   bool                      `json:"crisis"`
	Matches  []string                  `json:"matches,omitempty"`
	Reply    string                    `json:"reply"`
}

func classifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Classify messages given as arguments, or one per line on stdin",
		ArgsUsage: "[message...]",
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Seed for reply selection, 0 picks a random source",
			},
			&cli.StringFlag{
				Name:  "region",
				Usage: "Helpline region used in crisis replies",
				Value: helpline.DefaultRegion,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print one JSON object per message",
			},
		},
		Action: func(c *cli.Context) error {
			line, err := helpline.Resolve(helpline.NewMemoryStore(helpline.Seed()), c.String("region"))
			if err != nil {
				return fmt.Errorf("%w: %q", err, c.String("region"))
			}

			rng := reply.NewRandom()
			if seed := c.Uint64("seed"); seed != 0 {
				rng = reply.NewSeeded(seed)
			}
			responder := reply.New(line, rng)

			messages := c.Args().Slice()
			if len(messages) == 0 {
				messages, err = readLines(c.App.Reader)
				if err != nil {
					return err
				}
			}

			for _, msg := range messages {
				if err := writeReport(c.App.Writer, classify(responder, msg), c.Bool("json")); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration helpers",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a sample configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Write the sample to `FILE`",
						Value:   "mindhaven.toml",
					},
				},
				Action: func(c *cli.Context) error {
					path := c.String("path")
					if err := config.WriteSample(path); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Sample configuration written to %s\n", path)
					return nil
				},
			},
		},
	}
}

func classify(responder *reply.Responder, message string) report {
	result := emotion.Classify(message)
	matches := emotion.CrisisMatches(message)
	return report{
		Message:  message,
		Emotion:  result.Label,
		Fallback: result.Fallback,
		Scores:   result.Scores,
		Crisis:   len(matches) > 0,
		Matches:  matches,
		Reply:    responder.Reply(message, result.Label),
	}
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if text := strings.TrimSpace(scanner.Text()); text != "" {
			lines = append(lines, text)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return lines, nil
}

func writeReport(w io.Writer, rep report, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(rep)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "message: %s\n", rep.Message)
	fmt.Fprintf(&b, "emotion: %s", rep.Emotion)
	if rep.Fallback {
		b.WriteString(" (fallback)")
	}
	b.WriteString("\n")

	labels := make([]string, 0, len(rep.Scores))
	for label, score := range rep.Scores {
		if score > 0 {
			labels = append(labels, fmt.Sprintf("%s=%g", label, score))
		}
	}
	sort.Strings(labels)
	if len(labels) > 0 {
		fmt.Fprintf(&b, "scores:  %s\n", strings.Join(labels, " "))
	}
	if rep.Crisis {
		fmt.Fprintf(&b, "crisis:  %s\n", strings.Join(rep.Matches, ", "))
	}
	fmt.Fprintf(&b, "reply:\n%s\n\n", rep.Reply)

	_, err := io.WriteString(w, b.String())
	return err
}
