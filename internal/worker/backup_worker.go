// Package worker mirrors ledger mutations into the backup sheet. It
// consumes sync messages published by the API and runs a periodic
// sweep over rows still marked pending, so a lost message never loses
// a backup row for good.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/huy7715/money-tracker/internal/amqp"
	"github.com/huy7715/money-tracker/internal/core"
	"github.com/huy7715/money-tracker/internal/sheets"
	"github.com/huy7715/money-tracker/internal/storage"
)

type BackupWorker struct {
	store     *storage.LedgerRepository
	backup    sheets.BackupWriter
	events    *amqp.Client
	batchSize int
	interval  time.Duration
}

// NewBackupWorker wires the worker. events may be nil; the worker then
// runs on the periodic sweep alone.
func NewBackupWorker(store *storage.LedgerRepository, backup sheets.BackupWriter, events *amqp.Client, batchSize int, interval time.Duration) *BackupWorker {
	return &BackupWorker{
		store:     store,
		backup:    backup,
		events:    events,
		batchSize: batchSize,
		interval:  interval,
	}
}

// Run blocks until ctx is cancelled, consuming sync messages and
// sweeping pending rows on the configured interval.
func (w *BackupWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if w.events != nil {
		g.Go(func() error {
			err := w.events.ConsumeTransactionSync(ctx, func(msg *amqp.TransactionSyncMessage) error {
				return w.HandleSyncMessage(ctx, msg)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		slog.InfoContext(ctx, "No message broker configured, relying on periodic sweep only")
	}

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := w.ProcessPending(ctx); err != nil {
					slog.ErrorContext(ctx, "Periodic backup sweep failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}

// HandleSyncMessage mirrors one mutation announced over the broker.
func (w *BackupWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing backup message",
		"id", msg.ID,
		"action", msg.Action)

	if msg.Action == amqp.ActionDelete {
		ref, err := w.backup.AppendTombstone(ctx, msg.ID, msg.Timestamp)
		if err != nil {
			return fmt.Errorf("append tombstone: %w", err)
		}
		slog.InfoContext(ctx, "Recorded deletion in backup sheet",
			"id", msg.ID,
			"sheet_ref", ref)
		return nil
	}

	tx, err := w.store.Queries().GetTransaction(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		// The entry was deleted before this message got processed; the
		// delete message carries its own tombstone.
		slog.WarnContext(ctx, "Entry gone before backup, skipping", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if err := w.mirror(ctx, tx); err != nil {
		return fmt.Errorf("mirror transaction: %w", err)
	}
	return nil
}

// ProcessPending sweeps entries still marked pending. This is the
// catch-net for lost broker messages and for edits made while the
// worker was down.
func (w *BackupWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.Queries().PendingBackups(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending backups: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending backups", "count", len(pending))

	for _, tx := range pending {
		if err := w.mirror(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to back up entry", "id", tx.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupCheck sweeps a larger batch once, to recover from worker
// downtime before the steady-state loop takes over.
func (w *BackupWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.store.Queries().PendingBackups(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending backups for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending backups found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending backups on startup, processing...",
		"count", len(pending))

	synced := 0
	failed := 0
	for _, tx := range pending {
		if err := w.mirror(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to back up entry during startup",
				"id", tx.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup backup check completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)

	return nil
}

func (w *BackupWorker) mirror(ctx context.Context, tx core.Transaction) error {
	ref, err := w.backup.Append(ctx, tx)
	if err != nil {
		if markErr := w.store.Queries().MarkBackupError(ctx, tx.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark backup error", "id", tx.ID, "error", markErr)
		}
		return fmt.Errorf("append to backup sheet: %w", err)
	}

	if err := w.store.Queries().MarkBackedUp(ctx, tx.ID); err != nil {
		// The append itself worked; don't fail the message over the marker.
		slog.ErrorContext(ctx, "Failed to mark as backed up", "id", tx.ID, "error", err)
	}

	slog.InfoContext(ctx, "Backed up entry",
		"id", tx.ID,
		"sheet_ref", ref,
		"amount_cents", tx.Amount.Cents)

	return nil
}
