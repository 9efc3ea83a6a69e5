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

	"github.com/huy7715/money-tracker/internal/amqp"
	"github.com/huy7715/money-tracker/internal/config"
	apphttp "github.com/huy7715/money-tracker/internal/http"
	applog "github.com/huy7715/money-tracker/internal/log"
	"github.com/huy7715/money-tracker/internal/services"
	"github.com/huy7715/money-tracker/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	logger.Info("Starting tracker API")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewLedgerRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open ledger store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	// The broker is optional: without it the API still works, writes
	// just don't fan out and the backup worker falls back to its sweep.
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPSyncQueue, cfg.AMQPEventsQueue)
		if err != nil {
			logger.Warn("Message broker unavailable, continuing without it", "error", err)
			events = nil
		} else {
			defer events.Close()
			logger.Info("Connected to message broker", "exchange", cfg.AMQPExchange)
		}
	}

	deps := apphttp.Services{
		Ledger:    services.NewLedgerService(store, events),
		Assets:    services.NewAssetService(store, events),
		Budgets:   services.NewBudgetService(store, events),
		Reports:   services.NewReportService(store),
		Diary:     services.NewDiaryService(store),
		Scheduler: services.NewContributionScheduler(store),
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting tracker server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
