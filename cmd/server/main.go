package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"gwi.com/chat-core/internal/api"
	"gwi.com/chat-core/internal/auth"
	"gwi.com/chat-core/internal/config"
	"gwi.com/chat-core/internal/core"
	"gwi.com/chat-core/internal/events"
	"gwi.com/chat-core/internal/store"
)

func main() {
	// Command line flag for a one-shot typing compaction
	sweepFlag := flag.Bool("sweep", false, "Remove stale typing states once and exit")
	flag.Parse()

	config.LoadConfig()
	cfg := config.AppConfig

	logger := newLogger(cfg)

	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer dbStore.Close()

	compactor, err := core.NewTypingCompactor(dbStore, cfg.TypingSweepCron, cfg.TypingRetention, logger.With().Str("component", "typing_compactor").Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid typing compactor configuration")
	}

	if *sweepFlag {
		n, err := compactor.RunOnce(context.Background())
		if err != nil {
			logger.Fatal().Err(err).Msg("typing sweep failed")
		}
		logger.Info().Int64("removed", n).Msg("typing sweep complete, exiting")
		return
	}

	// Change events always reach local websocket subscribers; Redis fan-out
	// is added when configured.
	bus := events.NewBus()
	var notifier events.Notifier = bus
	if cfg.RedisURL != "" {
		redisPub, err := events.NewRedisPublisher(context.Background(), cfg.RedisURL, cfg.RedisChannel)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisPub.Close()
		notifier = events.Multi{bus, redisPub}
		logger.Info().Str("channel", cfg.RedisChannel).Msg("publishing change events to Redis")
	}

	chatService := core.NewChatService(dbStore, notifier, logger)

	apiHandler := api.NewAPIHandler(chatService, auth.NewTokenVerifier(cfg.JWTSecret), bus,
		api.RateLimitConfig{RPS: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}, logger)
	router := api.NewRouter(apiHandler, logger, cfg.CORSAllowedOrigins)

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	if cfg.TypingSweepEnabled {
		go compactor.Run(bgCtx)
	}

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
		// No WriteTimeout: the event stream holds its connection open.
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Str("env", cfg.Env).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Str("addr", serverAddr).Msg("could not listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server...")

	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exiting gracefully")
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
