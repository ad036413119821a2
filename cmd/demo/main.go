// Command demo runs a stub backend that echoes chat messages and serves a
// static page. It has no emotion analysis and no persistence.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/mindhaven/backend/internal/config"
	"github.com/zhouzirui/mindhaven/backend/internal/handler/demo"
	"github.com/zhouzirui/mindhaven/backend/internal/logging"
	"github.com/zhouzirui/mindhaven/backend/internal/middleware"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	addr := flag.String("addr", "", "listen address, overrides demo.addr")
	staticDir := flag.String("static", "", "directory holding index.html, overrides demo.static_dir")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatal().Err(err).Msg("failed to configure logging")
	}

	listen := cfg.Demo.Addr
	if *addr != "" {
		listen = *addr
	}
	dir := cfg.Demo.StaticDir
	if *staticDir != "" {
		dir = *staticDir
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.Server.CORSOrigin))
	demo.New(dir).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              listen,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info().Str("addr", listen).Str("static", dir).Msg("MindHaven demo listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		<-errCh
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("demo server error")
		}
	}
}
