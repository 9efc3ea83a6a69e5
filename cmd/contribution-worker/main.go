// Command contribution-worker applies recurring asset contributions on
// a schedule, independent of API traffic. The per-asset month marker
// only advances under a guard on its stored value, so running this
// worker alongside the API's own daily check applies each contribution
// at most once.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/huy7715/money-tracker/internal/config"
	"github.com/huy7715/money-tracker/internal/core"
	applog "github.com/huy7715/money-tracker/internal/log"
	"github.com/huy7715/money-tracker/internal/services"
	"github.com/huy7715/money-tracker/internal/storage"
)

const checkInterval = time.Hour

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentScheduler,
	})
	applog.SetDefault(logger)

	logger.Info("Starting contribution-worker")

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

	scheduler := services.NewContributionScheduler(store)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	check := func() {
		month := core.CurrentMonth()
		processed, err := scheduler.CheckRecurring(ctx, month)
		if err != nil {
			logger.Error("Contribution check failed", "error", err, "month", string(month))
			return
		}
		if processed {
			logger.Info("Applied recurring contributions", "month", string(month))
		}
	}

	logger.Info("Contribution scheduler configured",
		"interval", checkInterval.String(),
		"sqlite_db", cfg.SQLiteDBPath)

	// Run an initial check on startup, then on the ticker.
	check()

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Contribution-worker stopped gracefully")
			return
		case <-ticker.C:
			check()
		}
	}
}
