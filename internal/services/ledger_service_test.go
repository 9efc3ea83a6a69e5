package services

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/huy7715/money-tracker/internal/core"
	"github.com/huy7715/money-tracker/internal/storage"
)

func newTestStore(t *testing.T) *storage.LedgerRepository {
	t.Helper()
	store, err := storage.NewLedgerRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewLedgerRepository() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createTestAsset(t *testing.T, store *storage.LedgerRepository, name string, amountCents, contributionCents int64) int64 {
	t.Helper()
	id, err := store.Queries().CreateAsset(context.Background(), storage.AssetParams{
		Name:                  name,
		Kind:                  core.Savings,
		AmountCents:           amountCents,
		AutoContributionCents: contributionCents,
	})
	if err != nil {
		t.Fatalf("CreateAsset() error = %v", err)
	}
	return id
}

func assetBalance(t *testing.T, store *storage.LedgerRepository, id int64) int64 {
	t.Helper()
	asset, err := store.Queries().GetAsset(context.Background(), id)
	if err != nil {
		t.Fatalf("GetAsset() error = %v", err)
	}
	return asset.Amount.Cents
}

func TestLedgerService_AddTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("unlinked entry leaves assets alone", func(t *testing.T) {
		store := newTestStore(t)
		service := NewLedgerService(store, nil)
		assetID := createTestAsset(t, store, "Emergency fund", 100_000, 0)

		created, err := service.AddTransaction(ctx, AddTransactionParams{
			AmountCents: 2_500,
			Category:    "Food",
			Type:        core.Expense,
			Date:        "2026-03-10 12:30:00",
		})
		if err != nil {
			t.Fatalf("AddTransaction() error = %v", err)
		}
		if created.ID == 0 {
			t.Error("AddTransaction() should assign an ID")
		}
		if got := assetBalance(t, store, assetID); got != 100_000 {
			t.Errorf("asset balance = %d, want unchanged 100000", got)
		}
	})

	t.Run("linked expense decreases the asset", func(t *testing.T) {
		store := newTestStore(t)
		service := NewLedgerService(store, nil)
		assetID := createTestAsset(t, store, "Checking", 100_000, 0)

		_, err := service.AddTransaction(ctx, AddTransactionParams{
			AmountCents: 5_000,
			Category:    "Rent",
			Type:        core.Expense,
			Date:        "2026-03-01 09:00:00",
			AssetID:     &assetID,
		})
		if err != nil {
			t.Fatalf("AddTransaction() error = %v", err)
		}
		if got := assetBalance(t, store, assetID); got != 95_000 {
			t.Errorf("asset balance = %d, want 95000", got)
		}
	})

	t.Run("linked income increases the asset", func(t *testing.T) {
		store := newTestStore(t)
		service := NewLedgerService(store, nil)
		assetID := createTestAsset(t, store, "Checking", 100_000, 0)

		_, err := service.AddTransaction(ctx, AddTransactionParams{
			AmountCents: 30_000,
			Category:    "Salary",
			Type:        core.Income,
			Date:        "2026-03-01 08:00:00",
			AssetID:     &assetID,
		})
		if err != nil {
			t.Fatalf("AddTransaction() error = %v", err)
		}
		if got := assetBalance(t, store, assetID); got != 130_000 {
			t.Errorf("asset balance = %d, want 130000", got)
		}
	})

	t.Run("missing linked asset still records the entry", func(t *testing.T) {
		store := newTestStore(t)
		service := NewLedgerService(store, nil)
		ghost := int64(999)

		created, err := service.AddTransaction(ctx, AddTransactionParams{
			AmountCents: 1_000,
			Category:    "Misc",
			Type:        core.Expense,
			Date:        "2026-03-02 10:00:00",
			AssetID:     &ghost,
		})
		if err != nil {
			t.Fatalf("AddTransaction() error = %v, want nil (missing asset is non-fatal)", err)
		}
		if _, err := service.GetTransaction(ctx, created.ID); err != nil {
			t.Errorf("GetTransaction() error = %v, entry should exist", err)
		}
	})

	t.Run("validation failures", func(t *testing.T) {
		store := newTestStore(t)
		service := NewLedgerService(store, nil)

		tests := []struct {
			name    string
			arg     AddTransactionParams
			wantErr error
		}{
			{
				name:    "zero amount",
				arg:     AddTransactionParams{AmountCents: 0, Category: "Food", Type: core.Expense},
				wantErr: core.ErrInvalidAmount,
			},
			{
				name:    "negative amount",
				arg:     AddTransactionParams{AmountCents: -100, Category: "Food", Type: core.Expense},
				wantErr: core.ErrInvalidAmount,
			},
			{
				name:    "blank category",
				arg:     AddTransactionParams{AmountCents: 100, Category: "   ", Type: core.Expense},
				wantErr: core.ErrEmptyCategory,
			},
			{
				name:    "unknown type",
				arg:     AddTransactionParams{AmountCents: 100, Category: "Food", Type: "transfer"},
				wantErr: core.ErrInvalidType,
			},
			{
				name:    "malformed date",
				arg:     AddTransactionParams{AmountCents: 100, Category: "Food", Type: core.Expense, Date: "03/10/2026"},
				wantErr: core.ErrInvalidDate,
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := service.AddTransaction(ctx, tt.arg)
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("AddTransaction() error = %v, want %v", err, tt.wantErr)
				}
			})
		}
	})
}

func TestLedgerService_DeleteTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("delete reverses the linked effect", func(t *testing.T) {
		store := newTestStore(t)
		service := NewLedgerService(store, nil)
		assetID := createTestAsset(t, store, "Checking", 100_000, 0)

		created, err := service.AddTransaction(ctx, AddTransactionParams{
			AmountCents: 5_000,
			Category:    "Rent",
			Type:        core.Expense,
			Date:        "2026-03-01 09:00:00",
			AssetID:     &assetID,
		})
		if err != nil {
			t.Fatalf("AddTransaction() error = %v", err)
		}
		if err := service.DeleteTransaction(ctx, created.ID); err != nil {
			t.Fatalf("DeleteTransaction() error = %v", err)
		}
		if got := assetBalance(t, store, assetID); got != 100_000 {
			t.Errorf("asset balance after round trip = %d, want 100000", got)
		}
		if _, err := service.GetTransaction(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("GetTransaction() after delete error = %v, want ErrNotFound", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		store := newTestStore(t)
		service := NewLedgerService(store, nil)

		if err := service.DeleteTransaction(ctx, 42); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("DeleteTransaction() error = %v, want ErrNotFound", err)
		}
	})
}

func TestLedgerService_UpdateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("update substitutes the effect, not accumulates it", func(t *testing.T) {
		store := newTestStore(t)
		service := NewLedgerService(store, nil)
		assetID := createTestAsset(t, store, "Checking", 100_000, 0)

		created, err := service.AddTransaction(ctx, AddTransactionParams{
			AmountCents: 10_000,
			Category:    "Rent",
			Type:        core.Expense,
			Date:        "2026-03-01 09:00:00",
			AssetID:     &assetID,
		})
		if err != nil {
			t.Fatalf("AddTransaction() error = %v", err)
		}

		err = service.UpdateTransaction(ctx, created.ID, AddTransactionParams{
			AmountCents: 15_000,
			Category:    "Rent",
			Type:        core.Expense,
			Date:        "2026-03-01 09:00:00",
		})
		if err != nil {
			t.Fatalf("UpdateTransaction() error = %v", err)
		}
		// 100000 - 10000, +10000 back, -15000 = 85000
		if got := assetBalance(t, store, assetID); got != 85_000 {
			t.Errorf("asset balance = %d, want 85000", got)
		}
	})

	t.Run("flipping expense to income swings the balance both ways", func(t *testing.T) {
		store := newTestStore(t)
		service := NewLedgerService(store, nil)
		assetID := createTestAsset(t, store, "Checking", 100_000, 0)

		created, err := service.AddTransaction(ctx, AddTransactionParams{
			AmountCents: 5_000,
			Category:    "Refund",
			Type:        core.Expense,
			Date:        "2026-03-05 09:00:00",
			AssetID:     &assetID,
		})
		if err != nil {
			t.Fatalf("AddTransaction() error = %v", err)
		}

		err = service.UpdateTransaction(ctx, created.ID, AddTransactionParams{
			AmountCents: 5_000,
			Category:    "Refund",
			Type:        core.Income,
			Date:        "2026-03-05 09:00:00",
		})
		if err != nil {
			t.Fatalf("UpdateTransaction() error = %v", err)
		}
		if got := assetBalance(t, store, assetID); got != 105_000 {
			t.Errorf("asset balance = %d, want 105000", got)
		}
	})

	t.Run("link survives the edit", func(t *testing.T) {
		store := newTestStore(t)
		service := NewLedgerService(store, nil)
		assetID := createTestAsset(t, store, "Checking", 100_000, 0)

		created, err := service.AddTransaction(ctx, AddTransactionParams{
			AmountCents: 1_000,
			Category:    "Food",
			Type:        core.Expense,
			Date:        "2026-03-05 09:00:00",
			AssetID:     &assetID,
		})
		if err != nil {
			t.Fatalf("AddTransaction() error = %v", err)
		}
		err = service.UpdateTransaction(ctx, created.ID, AddTransactionParams{
			AmountCents: 2_000,
			Category:    "Food",
			Type:        core.Expense,
			Date:        "2026-03-06 09:00:00",
		})
		if err != nil {
			t.Fatalf("UpdateTransaction() error = %v", err)
		}
		got, err := service.GetTransaction(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetTransaction() error = %v", err)
		}
		if got.AssetID == nil || *got.AssetID != assetID {
			t.Errorf("AssetID after update = %v, want %d", got.AssetID, assetID)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		store := newTestStore(t)
		service := NewLedgerService(store, nil)

		err := service.UpdateTransaction(ctx, 42, AddTransactionParams{
			AmountCents: 1_000,
			Category:    "Food",
			Type:        core.Expense,
			Date:        "2026-03-06 09:00:00",
		})
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("UpdateTransaction() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("reapply failure rolls the whole edit back", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "ledger.db")
		store, err := storage.NewLedgerRepository(dbPath)
		if err != nil {
			t.Fatalf("NewLedgerRepository() error = %v", err)
		}
		t.Cleanup(func() { store.Close() })
		service := NewLedgerService(store, nil)
		assetID := createTestAsset(t, store, "Checking", 10_000, 0)

		created, err := service.AddTransaction(ctx, AddTransactionParams{
			AmountCents: 1_000,
			Category:    "Food",
			Type:        core.Expense,
			Date:        "2026-03-10 12:00:00",
			AssetID:     &assetID,
		})
		if err != nil {
			t.Fatalf("AddTransaction() error = %v", err)
		}

		// Forbid negative balances through a second connection, so the
		// reapply step fails after the old effect is already reversed.
		raw, err := sql.Open("sqlite", dbPath)
		if err != nil {
			t.Fatalf("sql.Open() error = %v", err)
		}
		t.Cleanup(func() { raw.Close() })
		_, err = raw.ExecContext(ctx, `
			CREATE TRIGGER forbid_negative_balance BEFORE UPDATE ON assets
			WHEN NEW.amount_cents < 0
			BEGIN SELECT RAISE(ABORT, 'balance below zero'); END`)
		if err != nil {
			t.Fatalf("create trigger: %v", err)
		}

		err = service.UpdateTransaction(ctx, created.ID, AddTransactionParams{
			AmountCents: 50_000,
			Category:    "Food",
			Type:        core.Expense,
			Date:        "2026-03-10 12:00:00",
		})
		if !errors.Is(err, core.ErrReconciliation) {
			t.Fatalf("UpdateTransaction() error = %v, want ErrReconciliation", err)
		}

		// Neither the row edit nor either balance step survived.
		got, err := service.GetTransaction(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetTransaction() error = %v", err)
		}
		if got.Amount.Cents != 1_000 {
			t.Errorf("amount after failed edit = %d, want untouched 1000", got.Amount.Cents)
		}
		if balance := assetBalance(t, store, assetID); balance != 9_000 {
			t.Errorf("asset balance = %d, want untouched 9000", balance)
		}
	})
}

func TestLedgerService_Balance(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	service := NewLedgerService(store, nil)

	seed := []AddTransactionParams{
		{AmountCents: 300_000, Category: "Salary", Type: core.Income, Date: "2026-03-01 08:00:00"},
		{AmountCents: 50_000, Category: "Rent", Type: core.Expense, Date: "2026-03-02 09:00:00"},
		{AmountCents: 20_000, Category: "Food", Type: core.Expense, Date: "2026-04-01 12:00:00"},
	}
	for _, arg := range seed {
		if _, err := service.AddTransaction(ctx, arg); err != nil {
			t.Fatalf("AddTransaction() error = %v", err)
		}
	}

	t.Run("all time", func(t *testing.T) {
		got, err := service.Balance(ctx, nil)
		if err != nil {
			t.Fatalf("Balance() error = %v", err)
		}
		if got.Cents != 230_000 {
			t.Errorf("Balance() = %d, want 230000", got.Cents)
		}
	})

	t.Run("scoped to one month", func(t *testing.T) {
		month := core.Month("2026-03")
		got, err := service.Balance(ctx, &month)
		if err != nil {
			t.Fatalf("Balance() error = %v", err)
		}
		if got.Cents != 250_000 {
			t.Errorf("Balance() = %d, want 250000", got.Cents)
		}
	})
}

func TestLedgerService_ListTransactions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	service := NewLedgerService(store, nil)

	dates := []string{"2026-03-01 08:00:00", "2026-03-15 12:00:00", "2026-04-02 10:00:00"}
	for _, date := range dates {
		_, err := service.AddTransaction(ctx, AddTransactionParams{
			AmountCents: 1_000, Category: "Misc", Type: core.Expense, Date: date,
		})
		if err != nil {
			t.Fatalf("AddTransaction() error = %v", err)
		}
	}

	all, err := service.ListTransactions(ctx, nil)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListTransactions() returned %d entries, want 3", len(all))
	}
	if all[0].Date != "2026-04-02 10:00:00" {
		t.Errorf("first entry date = %q, want newest first", all[0].Date)
	}

	month := core.Month("2026-03")
	scoped, err := service.ListTransactions(ctx, &month)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(scoped) != 2 {
		t.Errorf("ListTransactions(2026-03) returned %d entries, want 2", len(scoped))
	}
}
