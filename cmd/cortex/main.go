package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/cortex/internal/adapter"
	"github.com/gosuda/cortex/internal/config"
	"github.com/gosuda/cortex/internal/ledger"
	"github.com/gosuda/cortex/internal/notify"
	"github.com/gosuda/cortex/internal/server"
	"github.com/gosuda/cortex/internal/store/postgres"
	redisstore "github.com/gosuda/cortex/internal/store/redis"
	"github.com/gosuda/cortex/internal/workflow"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Initialize structured logging from environment.
	logLevel := os.Getenv("CORTEX_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("CORTEX_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	// Connect to Redis.
	pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer pubsub.Close()

	// The audit ledger wraps the append-only store with hash chaining.
	auditLedger := ledger.New(store.Audit())

	// External service adapters.
	extractor := adapter.NewExtractionClient(cfg.Extraction.URL, cfg.Extraction.Timeout)
	enricher := adapter.NewEnrichmentClient(
		cfg.Enrichment.URL,
		cfg.Enrichment.User,
		cfg.Enrichment.Password,
		cfg.Enrichment.Timeout,
	)

	// Reviewer notifications are optional; an empty bot token disables them.
	var notifier workflow.Notifier
	if cfg.Slack.BotToken != "" {
		notifier = notify.NewSlackNotifier(cfg.Slack.BotToken, cfg.Slack.ReviewChannel)
		log.Info().Str("channel", cfg.Slack.ReviewChannel).Msg("Slack reviewer notifications enabled")
	}

	// Create the workflow controller and the event dispatcher that feeds it.
	controller := workflow.NewController(
		store.Documents(),
		store.Rules(),
		auditLedger,
		extractor,
		enricher,
		&workflow.RuleReasoner{},
		pubsub,
		notifier,
		cfg.Extraction.Timeout,
		cfg.Enrichment.Timeout,
	)
	dispatcher := workflow.NewDispatcher(pubsub, controller)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run the dispatcher in the background; it exits when ctx is cancelled.
	go func() {
		if dispErr := dispatcher.Run(ctx); dispErr != nil {
			log.Error().Err(dispErr).Msg("dispatcher error")
			cancel()
		}
	}()

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, store, pubsub, auditLedger)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
