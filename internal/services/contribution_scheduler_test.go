package services

import (
	"context"
	"testing"

	"github.com/huy7715/money-tracker/internal/core"
)

func TestContributionScheduler_CheckRecurring(t *testing.T) {
	ctx := context.Background()

	t.Run("applies contribution once per month", func(t *testing.T) {
		store := newTestStore(t)
		scheduler := NewContributionScheduler(store)
		assetID := createTestAsset(t, store, "Pension", 2_200_000_000, 200_000_000)

		processed, err := scheduler.CheckRecurring(ctx, core.Month("2026-01"))
		if err != nil {
			t.Fatalf("CheckRecurring() error = %v", err)
		}
		if !processed {
			t.Error("CheckRecurring() = false, want true on first run")
		}
		if got := assetBalance(t, store, assetID); got != 2_400_000_000 {
			t.Errorf("asset balance = %d, want 2400000000", got)
		}

		// Same month again: marker already advanced, nothing to do.
		processed, err = scheduler.CheckRecurring(ctx, core.Month("2026-01"))
		if err != nil {
			t.Fatalf("CheckRecurring() error = %v", err)
		}
		if processed {
			t.Error("CheckRecurring() = true on repeat run, want false")
		}
		if got := assetBalance(t, store, assetID); got != 2_400_000_000 {
			t.Errorf("asset balance after repeat = %d, want 2400000000", got)
		}

		// Next month is due again.
		processed, err = scheduler.CheckRecurring(ctx, core.Month("2026-02"))
		if err != nil {
			t.Fatalf("CheckRecurring() error = %v", err)
		}
		if !processed {
			t.Error("CheckRecurring() = false for the next month, want true")
		}
		if got := assetBalance(t, store, assetID); got != 2_600_000_000 {
			t.Errorf("asset balance = %d, want 2600000000", got)
		}
	})

	t.Run("records a linked first-of-month entry", func(t *testing.T) {
		store := newTestStore(t)
		scheduler := NewContributionScheduler(store)
		assetID := createTestAsset(t, store, "Pension", 0, 50_000)

		if _, err := scheduler.CheckRecurring(ctx, core.Month("2026-05")); err != nil {
			t.Fatalf("CheckRecurring() error = %v", err)
		}

		entries, err := store.Queries().ListTransactionsByMonth(ctx, core.Month("2026-05"))
		if err != nil {
			t.Fatalf("ListTransactionsByMonth() error = %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("found %d contribution entries, want 1", len(entries))
		}
		entry := entries[0]
		if entry.Category != ContributionCategory {
			t.Errorf("category = %q, want %q", entry.Category, ContributionCategory)
		}
		if entry.Type != core.Expense {
			t.Errorf("type = %q, want expense", entry.Type)
		}
		if entry.Date != "2026-05-01 00:00:01" {
			t.Errorf("date = %q, want 2026-05-01 00:00:01", entry.Date)
		}
		if entry.AssetID == nil || *entry.AssetID != assetID {
			t.Errorf("AssetID = %v, want %d", entry.AssetID, assetID)
		}
		if entry.Amount.Cents != 50_000 {
			t.Errorf("amount = %d, want 50000", entry.Amount.Cents)
		}
	})

	t.Run("skips assets without a contribution", func(t *testing.T) {
		store := newTestStore(t)
		scheduler := NewContributionScheduler(store)
		assetID := createTestAsset(t, store, "Wallet", 10_000, 0)

		processed, err := scheduler.CheckRecurring(ctx, core.Month("2026-01"))
		if err != nil {
			t.Fatalf("CheckRecurring() error = %v", err)
		}
		if processed {
			t.Error("CheckRecurring() = true, want false with no eligible assets")
		}
		if got := assetBalance(t, store, assetID); got != 10_000 {
			t.Errorf("asset balance = %d, want unchanged 10000", got)
		}
	})

	t.Run("does not rewind a marker ahead of the target month", func(t *testing.T) {
		store := newTestStore(t)
		scheduler := NewContributionScheduler(store)
		assetID := createTestAsset(t, store, "Pension", 0, 50_000)

		if _, err := scheduler.CheckRecurring(ctx, core.Month("2026-06")); err != nil {
			t.Fatalf("CheckRecurring() error = %v", err)
		}
		processed, err := scheduler.CheckRecurring(ctx, core.Month("2026-03"))
		if err != nil {
			t.Fatalf("CheckRecurring() error = %v", err)
		}
		if processed {
			t.Error("CheckRecurring() = true for an earlier month, want false")
		}
		if got := assetBalance(t, store, assetID); got != 50_000 {
			t.Errorf("asset balance = %d, want 50000", got)
		}
	})

	t.Run("stale snapshots apply the contribution at most once", func(t *testing.T) {
		// Two schedulers in separate processes can both list the asset
		// before either commits. The marker guard inside the unit of
		// work must let only the first write through.
		store := newTestStore(t)
		scheduler := NewContributionScheduler(store)
		assetID := createTestAsset(t, store, "Pension", 20_000_000, 2_000_000)
		month := core.Month("2026-01")

		stale, err := store.Queries().GetAsset(ctx, assetID)
		if err != nil {
			t.Fatalf("GetAsset() error = %v", err)
		}

		applied, err := scheduler.recordContribution(ctx, stale, month)
		if err != nil {
			t.Fatalf("recordContribution() error = %v", err)
		}
		if !applied {
			t.Fatal("recordContribution() = false on first attempt, want true")
		}
		applied, err = scheduler.recordContribution(ctx, stale, month)
		if err != nil {
			t.Fatalf("recordContribution() error = %v", err)
		}
		if applied {
			t.Error("recordContribution() = true on second attempt with a stale snapshot, want false")
		}

		if got := assetBalance(t, store, assetID); got != 22_000_000 {
			t.Errorf("asset balance = %d, want 22000000 after a single contribution", got)
		}
		entries, err := store.Queries().ListTransactionsByMonth(ctx, month)
		if err != nil {
			t.Fatalf("ListTransactionsByMonth() error = %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("found %d contribution entries, want 1", len(entries))
		}
	})

	t.Run("rejects a malformed month", func(t *testing.T) {
		store := newTestStore(t)
		scheduler := NewContributionScheduler(store)

		if _, err := scheduler.CheckRecurring(ctx, core.Month("2026-1")); err == nil {
			t.Error("CheckRecurring() error = nil, want validation error")
		}
	})
}

// The full cycle from the reconciler's point of view: a contribution
// lands, a linked spend shrinks the balance, and deleting that spend
// restores it.
func TestContributionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	scheduler := NewContributionScheduler(store)
	ledger := NewLedgerService(store, nil)
	assetID := createTestAsset(t, store, "Pension", 20_000_000, 2_000_000)

	if _, err := scheduler.CheckRecurring(ctx, core.Month("2026-01")); err != nil {
		t.Fatalf("CheckRecurring() error = %v", err)
	}
	if got := assetBalance(t, store, assetID); got != 22_000_000 {
		t.Fatalf("balance after contribution = %d, want 22000000", got)
	}

	// Spend against the asset, then undo it.
	spent, err := ledger.AddTransaction(ctx, AddTransactionParams{
		AmountCents: 500_000,
		Category:    "Fees",
		Type:        core.Expense,
		Date:        "2026-01-15 10:00:00",
		AssetID:     &assetID,
	})
	if err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	if got := assetBalance(t, store, assetID); got != 21_500_000 {
		t.Fatalf("balance after spend = %d, want 21500000", got)
	}
	if err := ledger.DeleteTransaction(ctx, spent.ID); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if got := assetBalance(t, store, assetID); got != 22_000_000 {
		t.Fatalf("balance after undo = %d, want 22000000", got)
	}
}
