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

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/mindhaven/backend/internal/config"
	"github.com/zhouzirui/mindhaven/backend/internal/handler"
	"github.com/zhouzirui/mindhaven/backend/internal/logging"
	"github.com/zhouzirui/mindhaven/backend/internal/middleware"
	"github.com/zhouzirui/mindhaven/backend/internal/model/helpline"
	"github.com/zhouzirui/mindhaven/backend/internal/service/chat"
	emotionservice "github.com/zhouzirui/mindhaven/backend/internal/service/emotion"
	"github.com/zhouzirui/mindhaven/backend/internal/service/mood"
	"github.com/zhouzirui/mindhaven/backend/internal/service/reply"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatal().Err(err).Msg("failed to configure logging")
	}
	if envErr != nil {
		log.Warn().Err(envErr).Msg("failed to load .env file, continuing with system environment variables only")
	}

	helplines := helpline.NewMemoryStore(helpline.Seed())
	active, err := helpline.Resolve(helplines, cfg.Reply.HelplineRegion)
	if err != nil {
		log.Fatal().Err(err).Str("region", cfg.Reply.HelplineRegion).Msg("unknown helpline region")
	}

	rng := reply.NewRandom()
	if cfg.Reply.Seed != 0 {
		rng = reply.NewSeeded(cfg.Reply.Seed)
		log.Info().Uint64("seed", cfg.Reply.Seed).Msg("replies use a seeded random source")
	}
	responder := reply.New(active, rng)

	store, closeStore, err := openMoodStore(ctx, cfg.Tracker)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open mood store")
	}
	defer closeStore()
	tracker := mood.NewTracker(store, cfg.Tracker.HistoryLimit)

	// Initialize emotion analysis service (LLM-based guidance with keyword fallback)
	emotionCfg := emotionservice.Config{
		Enabled:      cfg.AI.EmotionLLMEnabled,
		HistoryLimit: cfg.AI.EmotionHistoryLimit,
		Timeout:      cfg.AI.EmotionTimeout,
	}
	var chatModel model.ChatModel
	if cfg.AI.EmotionLLMEnabled {
		if cfg.AI.Enabled() {
			chatModel, err = cfg.AI.NewChatModel(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("failed to initialize Ark chat model, falling back to keywords")
			}
		} else {
			log.Warn().Msg("emotion classifier requested but Ark credentials are missing, falling back to keywords")
		}
	}
	emotionSvc, err := emotionservice.NewService(ctx, chatModel, emotionCfg)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize emotion service, falling back to keywords")
		emotionSvc = nil
	}
	log.Info().Str("classifier", emotionSvc.Mode()).Msg("emotion classifier ready")

	chatSvc, err := chat.NewService(tracker, responder, emotionSvc)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize chat service")
	}

	router, err := handler.NewRouter(handler.Deps{
		Helplines:  helplines,
		Active:     active,
		Chat:       chatSvc,
		Limiter:    middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		CORSOrigin: cfg.Server.CORSOrigin,
		StoreName:  tracker.Backend(),
		Classifier: emotionSvc.Mode(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	startServer(ctx, cfg.Server, router)
}

// openMoodStore opens the configured backend. The returned close func is never nil.
func openMoodStore(ctx context.Context, cfg config.TrackerConfig) (mood.Store, func(), error) {
	if cfg.Store != "redis" {
		return mood.NewMemoryStore(cfg.Capacity), func() {}, nil
	}

	store, err := mood.NewRedisStore(cfg.RedisURL, cfg.KeyPrefix, cfg.Capacity)
	if err != nil {
		return nil, nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	log.Info().Str("prefix", cfg.KeyPrefix).Msg("mood tracker connected to redis")
	return store, func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("closing redis mood store")
		}
	}, nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("MindHaven backend listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
