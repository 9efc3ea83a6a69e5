package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/huy7715/money-tracker/internal/core"
	"github.com/huy7715/money-tracker/internal/storage"
)

// ContributionCategory labels the auto-generated ledger entries for
// recurring asset contributions.
const ContributionCategory = "Savings"

// ContributionScheduler applies recurring monthly contributions to
// assets. Idempotence comes from each asset's last-updated month: the
// marker only advances when the stored value is unset or strictly
// before the target month, and the advance runs inside the same unit of
// work that records the contribution, so two schedulers racing over the
// same asset commit at most one entry per month.
type ContributionScheduler struct {
	store *storage.LedgerRepository

	// mu keeps overlapping in-process runs from producing noisy
	// skip/apply interleavings; correctness across processes comes
	// from the guarded marker advance.
	mu sync.Mutex
}

func NewContributionScheduler(store *storage.LedgerRepository) *ContributionScheduler {
	return &ContributionScheduler{store: store}
}

// CheckRecurring processes every asset due a contribution for month and
// reports whether any was applied. A failure on one asset is logged and
// the remaining assets still get processed; if an asset's last-updated
// month is ahead of the target (clock skew, restored backup) it is
// skipped without being rewound.
func (s *ContributionScheduler) CheckRecurring(ctx context.Context, month core.Month) (bool, error) {
	if err := month.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	assets, err := s.store.Queries().ListAssets(ctx)
	if err != nil {
		return false, fmt.Errorf("list assets: %w", err)
	}

	processed := 0
	failed := 0
	for _, asset := range assets {
		if asset.AutoContribution.Cents <= 0 {
			continue
		}
		if asset.LastUpdatedMonth != nil && !asset.LastUpdatedMonth.Before(month) {
			continue
		}
		applied, err := s.recordContribution(ctx, asset, month)
		if err != nil {
			failed++
			slog.ErrorContext(ctx, "Failed to apply recurring contribution",
				"asset_id", asset.ID,
				"asset", asset.Name,
				"month", month,
				"error", err)
			continue
		}
		if !applied {
			continue
		}
		processed++
		slog.InfoContext(ctx, "Recurring contribution applied",
			"asset_id", asset.ID,
			"asset", asset.Name,
			"month", month,
			"amount_cents", asset.AutoContribution.Cents)
	}

	if processed > 0 || failed > 0 {
		slog.InfoContext(ctx, "Recurring contribution check finished",
			"month", month, "processed", processed, "failed", failed)
	}
	return processed > 0, nil
}

// recordContribution writes the linked expense entry, grows the asset
// balance by the contribution and advances the last-updated marker, all
// in one unit of work. The marker advance runs first with a guard on the
// stored month: if another process already claimed this month, the guard
// misses and the whole contribution is skipped (applied = false). That
// is what makes concurrent schedulers — the hourly worker next to the
// API's daily check — safe. The entry is dated at the first second of
// the month so it sorts ahead of organic activity.
func (s *ContributionScheduler) recordContribution(ctx context.Context, asset core.Asset, month core.Month) (applied bool, err error) {
	err = s.store.WithinTx(ctx, func(q *storage.Queries) error {
		advanced, err := q.AdvanceAssetContributionMonth(ctx, asset.ID, month)
		if err != nil {
			return err
		}
		if !advanced {
			return nil
		}
		_, err = q.CreateTransaction(ctx, storage.CreateTransactionParams{
			AmountCents: asset.AutoContribution.Cents,
			Category:    ContributionCategory,
			Type:        core.Expense,
			Description: fmt.Sprintf("Monthly contribution to %s", asset.Name),
			Date:        month.FirstSecond(),
			AssetID:     &asset.ID,
		})
		if err != nil {
			return fmt.Errorf("create contribution entry: %w", err)
		}
		if err := q.AdjustAssetAmount(ctx, asset.ID, asset.AutoContribution.Cents); err != nil {
			return fmt.Errorf("grow asset balance: %w", err)
		}
		applied = true
		return nil
	})
	return applied && err == nil, err
}
