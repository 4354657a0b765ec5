// AgroSense server — natural-language analytics over farm sensor data:
// HTTP API, ingestion pipeline, alert evaluation, and session lifecycle.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/agrosense/agrosense/pkg/alerts"
	"github.com/agrosense/agrosense/pkg/api"
	"github.com/agrosense/agrosense/pkg/cleanup"
	"github.com/agrosense/agrosense/pkg/config"
	"github.com/agrosense/agrosense/pkg/database"
	"github.com/agrosense/agrosense/pkg/ingest"
	"github.com/agrosense/agrosense/pkg/llm"
	"github.com/agrosense/agrosense/pkg/ontology"
	"github.com/agrosense/agrosense/pkg/router"
	"github.com/agrosense/agrosense/pkg/session"
	"github.com/agrosense/agrosense/pkg/version"
)

func main() {
	// Load .env if present; the environment wins on conflicts.
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file, continuing with existing environment", "error", err)
	}

	// 1. Configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetLogLoggerLevel(cfg.LogLevel.SlogLevel())
	slog.Info("Starting AgroSense",
		"version", version.Full(),
		"http_port", cfg.HTTPPort,
		"store_path", cfg.StorePath)

	ctx := context.Background()

	// 2. Store (sqlite, WAL) and migrations
	client, err := database.NewClient(ctx, database.DefaultConfig(cfg.StorePath))
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slog.Error("Error closing store", "error", err)
		}
	}()
	db := client.DB()
	slog.Info("Store ready")

	// 3. Sensor catalog with persisted runtime synonyms
	registry, err := ontology.LoadDefault()
	if err != nil {
		slog.Error("Failed to load sensor catalog", "error", err)
		os.Exit(1)
	}
	if err := registry.AttachStore(ontology.NewSQLSynonymStore(db)); err != nil {
		slog.Warn("Could not load persisted synonyms, continuing with the catalog", "error", err)
	}
	slog.Info("Sensor catalog loaded", "types", len(registry.Types()))

	// 4. LLM client (optional; every use has a deterministic fallback)
	var llmClient llm.Client
	if cfg.LLMEndpoint != "" {
		llmClient = llm.NewOpenAIClient(llm.Config{
			BaseURL: cfg.LLMEndpoint,
			Model:   cfg.LLMModel,
			APIKey:  cfg.LLMAPIKey,
		})
		slog.Info("LLM client initialized", "endpoint", cfg.LLMEndpoint, "model", cfg.LLMModel)
	} else {
		slog.Warn("No LLM endpoint configured; running rule-based only")
	}

	// 5. Ingestion pipeline (single writer)
	pipeline := ingest.NewPipeline(registry, db, ingest.Options{
		BatchSize:     cfg.IngestBatchSize,
		FlushInterval: cfg.IngestFlushInterval,
		QueueSize:     cfg.IngestQueueSize,
	})
	pipeline.Start(ctx)
	defer pipeline.Stop()

	// 6. Query router and alert services
	askRouter := router.NewService(db, registry, llmClient, router.Options{
		ContextTurns: cfg.ContextTurns,
	})
	alertStore := alerts.NewService(db)
	evaluator := alerts.NewEvaluator(db, alertStore, cfg.AlertSuppress)

	// 7. Session sweeper
	sweeper := cleanup.NewService(cleanup.Options{
		Interval:   cfg.SweepInterval,
		SessionTTL: cfg.SessionTTL,
		RetainDays: cfg.SessionRetainDays,
	}, session.NewService(db))
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// 8. Scheduled alert evaluation
	scheduler := cron.New()
	_, err = scheduler.AddFunc("@every "+cfg.AlertTickInterval.String(), func() {
		tickCtx, cancel := context.WithTimeout(ctx, cfg.AlertTickInterval)
		defer cancel()
		if fired, err := evaluator.Monitor(tickCtx, ""); err != nil {
			slog.Error("Alert evaluation tick failed", "error", err)
		} else if len(fired) > 0 {
			slog.Info("Alerts fired", "count", len(fired))
		}
	})
	if err != nil {
		slog.Error("Failed to schedule alert evaluation", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// 9. HTTP server
	server := api.NewServer(cfg, api.Deps{
		DB:        db,
		Router:    askRouter,
		Pipeline:  pipeline,
		Alerts:    alertStore,
		Evaluator: evaluator,
		Registry:  registry,
	})

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(server.Run)

	slog.Info("AgroSense started")

	// 10. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case <-gCtx.Done():
		slog.Error("Server error triggered shutdown")
	}

	// 11. Graceful shutdown: stop intake first, then drain HTTP
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown error", "error", err)
	}
	if err := g.Wait(); err != nil {
		slog.Error("Server exited with error", "error", err)
	}
	slog.Info("AgroSense stopped")
}
