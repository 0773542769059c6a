// Stagehand conversation server — provides the tenant HTTP API, receives
// platform webhooks, and runs the message pipeline.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/stagehand-io/stagehand/pkg/api"
	"github.com/stagehand-io/stagehand/pkg/cleanup"
	"github.com/stagehand-io/stagehand/pkg/config"
	"github.com/stagehand-io/stagehand/pkg/database"
	"github.com/stagehand-io/stagehand/pkg/llm"
	"github.com/stagehand-io/stagehand/pkg/models"
	"github.com/stagehand-io/stagehand/pkg/orchestrator"
	"github.com/stagehand-io/stagehand/pkg/stage"
	"github.com/stagehand-io/stagehand/pkg/store"
	"github.com/stagehand-io/stagehand/pkg/template"
	"github.com/stagehand-io/stagehand/pkg/webhook"
)

func main() {
	envPath := flag.String("env-file", ".env", "Path to environment file")
	flag.Parse()

	// Load .env if present; a missing file is fine in containerized deploys.
	if err := godotenv.Load(*envPath); err != nil {
		slog.Warn("Could not load env file, continuing with existing environment",
			"path", *envPath, "error", err)
	} else {
		slog.Info("Loaded environment", "path", *envPath)
	}

	ctx := context.Background()

	// 1. Runtime configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("Starting stagehand", "http_port", cfg.HTTPPort, "llm_mode", cfg.LLM.Mode)

	// 2. Database (migrations apply on startup)
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load database config", "error", err)
		os.Exit(1)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
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

	// 3. Domain services
	st := store.New(dbClient.Gorm())
	engine := template.NewEngine(st, template.NewRegistry())
	machine := stage.NewMachine(st)

	var llmClient llm.Client
	switch cfg.LLM.Mode {
	case config.LLMModeMock:
		llmClient = llm.NewScriptedClient()
		slog.Warn("Using mock LLM client — canned responses only")
	default:
		llmClient, err = llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			BaseURL: cfg.LLM.BaseURL,
		})
		if err != nil {
			slog.Error("Failed to initialize LLM client", "error", err)
			os.Exit(1)
		}
	}
	llmService := llm.NewService(llmClient, st, cfg.LLM.Timeout)

	orc := orchestrator.New(st, engine, llmService, machine, orchestrator.Config{
		FallbackReply:    cfg.Pipeline.FallbackReply,
		LeaseTimeout:     cfg.Pipeline.LeaseTimeout,
		BreakerThreshold: cfg.Pipeline.BreakerThreshold,
		BreakerWindow:    cfg.Pipeline.BreakerWindow,
	})

	// 4. Platform delivery clients, for webhook replies
	senders := map[string]webhook.Sender{}
	if cfg.Webhooks.MessengerPageToken != "" {
		senders[models.PlatformMessenger] = webhook.NewMessengerSender(cfg.Webhooks.MessengerPageToken, "")
	}
	if cfg.Webhooks.WhatsAppAccessToken != "" {
		senders[models.PlatformWhatsApp] = webhook.NewWhatsAppSender(
			cfg.Webhooks.WhatsAppAccessToken, cfg.Webhooks.WhatsAppPhoneNumber, "")
	}
	processor := webhook.NewProcessor(st, orc, senders)

	// 5. Retention cleanup loop
	cleanupService := cleanup.NewService(&cfg.Retention, st)
	cleanupService.Start(ctx)
	defer cleanupService.Stop()

	// 6. HTTP server (non-blocking start)
	httpServer := api.NewServer(cfg, dbClient, st, engine, orc, processor)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.HTTPPort
		slog.Info("HTTP server listening", "addr", addr)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	// 7. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 8. Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
