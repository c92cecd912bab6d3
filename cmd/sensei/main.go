// Sensei server — offline JLPT-ordered Japanese tutor: spaced-repetition
// study API, AI tutor streaming, and offline speech synthesis.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kotoba-lab/sensei/pkg/api"
	"github.com/kotoba-lab/sensei/pkg/config"
	"github.com/kotoba-lab/sensei/pkg/database"
	"github.com/kotoba-lab/sensei/pkg/llm"
	"github.com/kotoba-lab/sensei/pkg/services"
	"github.com/kotoba-lab/sensei/pkg/store"
	"github.com/kotoba-lab/sensei/pkg/tts"
	"github.com/kotoba-lab/sensei/pkg/tutor"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	slog.Info("Starting sensei", "addr", cfg.Addr(), "ollama_model", cfg.OllamaModel)

	ctx := context.Background()

	// Database: connect, ping, run migrations.
	dbClient, err := database.NewClient(ctx, database.DefaultConfig(cfg.DatabaseURL))
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("Error closing database client", "error", err)
		}
	}()
	slog.Info("Connected to PostgreSQL database")

	st := store.New(dbClient)

	if err := st.EnsureMetaDefaults(ctx, cfg.NewCardsPerDay); err != nil {
		slog.Error("Failed to seed settings defaults", "error", err)
		os.Exit(1)
	}

	catalogService := services.NewCatalogService(st, logger)
	reviewService := services.NewReviewService(st, logger)
	progressService := services.NewProgressService(st, logger)
	settingsService := services.NewSettingsService(st, logger)
	slog.Info("Services initialized")

	// Startup sweep: close study sessions left open by a previous crash.
	if err := reviewService.SweepStaleSessions(ctx); err != nil {
		slog.Error("Failed to sweep stale sessions", "error", err)
		// Non-fatal — continue
	}

	llmClient := llm.NewClient(cfg.OllamaBaseURL, cfg.OllamaModel, logger)
	tutorGateway := tutor.NewGateway(llmClient, st, logger)
	if err := llmClient.Health(ctx); err != nil {
		slog.Warn("Ollama is not ready; tutor endpoints will degrade", "error", err)
	}

	synthesizer := tts.NewSynthesizer(cfg.PiperBinaryPath, cfg.PiperModelPath, cfg.PiperConfigPath, logger)
	if !synthesizer.Available() {
		slog.Warn("Piper is not installed; TTS endpoint will return 503")
	}

	server := api.NewServer(dbClient, catalogService, reviewService, progressService,
		settingsService, tutorGateway, synthesizer, logger)

	httpServer := &http.Server{
		Addr:    cfg.Addr(),
		Handler: server.Engine(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Stamp open sessions so restarts never inherit dangling ones.
	if err := reviewService.CloseOpenSessions(shutdownCtx); err != nil {
		slog.Error("Failed to close open sessions", "error", err)
	}

	slog.Info("Shutdown complete")
}
