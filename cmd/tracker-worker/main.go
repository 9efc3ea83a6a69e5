package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/huy7715/money-tracker/internal/amqp"
	"github.com/huy7715/money-tracker/internal/config"
	applog "github.com/huy7715/money-tracker/internal/log"
	"github.com/huy7715/money-tracker/internal/sheets"
	gsheet "github.com/huy7715/money-tracker/internal/sheets/google"
	"github.com/huy7715/money-tracker/internal/sheets/memory"
	"github.com/huy7715/money-tracker/internal/storage"
	"github.com/huy7715/money-tracker/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting tracker backup worker")

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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var backup sheets.BackupWriter
	switch cfg.BackupTarget {
	case "sheets":
		client, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			OAuthClientJSON: cfg.GoogleOAuthClientJSON,
			OAuthClientFile: cfg.GoogleOAuthClientFile,
			OAuthTokenJSON:  cfg.GoogleOAuthTokenJSON,
			OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		backup = client
		logger.Info("Backing up to Google Sheets", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	default:
		backup = memory.New()
		logger.Info("Backing up to in-process memory store")
	}

	// Consume broker messages when a broker is configured; otherwise the
	// worker lives off the periodic sweep alone.
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPSyncQueue, cfg.AMQPEventsQueue)
		if err != nil {
			logger.Warn("Message broker unavailable, relying on periodic sweep", "error", err)
			events = nil
		} else {
			defer events.Close()
		}
	}

	w := worker.NewBackupWorker(store, backup, events, cfg.BackupBatchSize, cfg.BackupInterval)

	// Catch up on anything that accumulated while the worker was down.
	logger.Info("Performing startup backup check...")
	if err := w.StartupCheck(ctx); err != nil {
		logger.Error("Startup backup check failed", "error", err)
		// Don't exit - the periodic sweep will retry
	}

	logger.Info("Backup worker running",
		"batch_size", cfg.BackupBatchSize,
		"interval", cfg.BackupInterval.String(),
		"target", cfg.BackupTarget)

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Backup worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Backup worker stopped gracefully")
}
