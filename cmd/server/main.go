// Package main provides the entry point for the paper scout server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/venturelens/paper-scout/internal/config"
	"github.com/venturelens/paper-scout/internal/corpus"
	"github.com/venturelens/paper-scout/internal/ingest"
	"github.com/venturelens/paper-scout/internal/observability"
	"github.com/venturelens/paper-scout/internal/papersources/arxiv"
	"github.com/venturelens/paper-scout/internal/scoring"
	httpserver "github.com/venturelens/paper-scout/internal/server/http"
	"github.com/venturelens/paper-scout/internal/snapshot"
	"github.com/venturelens/paper-scout/internal/tasks"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A local .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("paper-scout server starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("paperscout")
	}

	store, err := snapshot.NewStore(cfg.Ingestion.ResultsDir, cfg.Ingestion.WatermarkFile, logger)
	if err != nil {
		return fmt.Errorf("create snapshot store: %w", err)
	}

	arxivClient := arxiv.New(arxiv.Config{
		BaseURL:    cfg.ArXiv.BaseURL,
		Timeout:    cfg.ArXiv.Timeout,
		RateLimit:  cfg.ArXiv.RateLimit,
		BurstSize:  cfg.ArXiv.BurstSize,
		PageSize:   cfg.ArXiv.PageSize,
		MaxResults: cfg.ArXiv.MaxResults,
	})

	scheduler := ingest.NewScheduler(arxivClient, store, ingest.Config{
		Categories:      cfg.Ingestion.Categories,
		MaxLookbackDays: cfg.Ingestion.MaxLookbackDays,
	}, metrics, logger)

	completions := scoring.NewOpenAIProvider(scoring.OpenAIConfig{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
		MaxRetries:  cfg.LLM.MaxRetries,
	})

	scorer := scoring.NewEngine(completions, store, scoring.Config{
		RequestDelay: cfg.Scoring.RequestDelay,
	}, metrics, logger)

	queries := corpus.NewEngine(store, logger)

	tracker := tasks.NewTracker()
	runner := tasks.NewRunner(tracker, logger)

	srv := httpserver.NewServer(httpserver.Config{
		Address:            cfg.Server.HTTPAddress(),
		ReadTimeout:        cfg.Server.ReadTimeout,
		WriteTimeout:       cfg.Server.WriteTimeout,
		IdleTimeout:        cfg.Server.IdleTimeout,
		ShutdownTimeout:    cfg.Server.ShutdownTimeout,
		StaticDir:          cfg.Server.StaticDir,
		IngestionTimeout:   cfg.Ingestion.Timeout,
		ScoringTimeout:     cfg.Scoring.Timeout,
		DefaultScoringRows: cfg.Scoring.DefaultLimit,
	}, queries, scheduler, scorer, runner, tracker, metrics, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info().
		Str("address", cfg.Server.HTTPAddress()).
		Strs("categories", cfg.Ingestion.Categories).
		Str("model", completions.Model()).
		Msg("paper-scout is ready")

	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("shutting down paper-scout")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("paper-scout shutdown complete")
	return nil
}
