package services

import (
	"context"
	"errors"
	"testing"

	"github.com/huy7715/money-tracker/internal/core"
)

func TestBudgetService_SetAndAdjust(t *testing.T) {
	ctx := context.Background()
	month := core.Month("2026-03")

	t.Run("set then replace", func(t *testing.T) {
		store := newTestStore(t)
		service := NewBudgetService(store, nil)

		if err := service.SetBudget(ctx, core.Budget{Category: "Food", Month: month, MonthlyLimit: core.Money{Cents: 50_000}}); err != nil {
			t.Fatalf("SetBudget() error = %v", err)
		}
		if err := service.SetBudget(ctx, core.Budget{Category: "Food", Month: month, MonthlyLimit: core.Money{Cents: 70_000}}); err != nil {
			t.Fatalf("SetBudget() error = %v", err)
		}
		got, err := store.Queries().GetBudget(ctx, "Food", month)
		if err != nil {
			t.Fatalf("GetBudget() error = %v", err)
		}
		if got.MonthlyLimit.Cents != 70_000 {
			t.Errorf("limit = %d, want 70000 after replace", got.MonthlyLimit.Cents)
		}
	})

	t.Run("adjust moves the existing limit", func(t *testing.T) {
		store := newTestStore(t)
		service := NewBudgetService(store, nil)

		if err := service.SetBudget(ctx, core.Budget{Category: "Food", Month: month, MonthlyLimit: core.Money{Cents: 50_000}}); err != nil {
			t.Fatalf("SetBudget() error = %v", err)
		}
		got, err := service.AdjustBudget(ctx, "Food", month, -20_000)
		if err != nil {
			t.Fatalf("AdjustBudget() error = %v", err)
		}
		if got.MonthlyLimit.Cents != 30_000 {
			t.Errorf("limit after -20000 = %d, want 30000", got.MonthlyLimit.Cents)
		}
	})

	t.Run("adjust clamps at zero", func(t *testing.T) {
		store := newTestStore(t)
		service := NewBudgetService(store, nil)

		if err := service.SetBudget(ctx, core.Budget{Category: "Food", Month: month, MonthlyLimit: core.Money{Cents: 10_000}}); err != nil {
			t.Fatalf("SetBudget() error = %v", err)
		}
		got, err := service.AdjustBudget(ctx, "Food", month, -50_000)
		if err != nil {
			t.Fatalf("AdjustBudget() error = %v", err)
		}
		if got.MonthlyLimit.Cents != 0 {
			t.Errorf("limit = %d, want clamped to 0", got.MonthlyLimit.Cents)
		}
	})

	t.Run("adjust follows the stored casing", func(t *testing.T) {
		store := newTestStore(t)
		service := NewBudgetService(store, nil)

		if err := service.SetBudget(ctx, core.Budget{Category: "Food", Month: month, MonthlyLimit: core.Money{Cents: 50_000}}); err != nil {
			t.Fatalf("SetBudget() error = %v", err)
		}
		got, err := service.AdjustBudget(ctx, "food", month, 10_000)
		if err != nil {
			t.Fatalf("AdjustBudget() error = %v", err)
		}
		if got.Category != "Food" {
			t.Errorf("category = %q, want the stored %q", got.Category, "Food")
		}
		if got.MonthlyLimit.Cents != 60_000 {
			t.Errorf("limit = %d, want 60000", got.MonthlyLimit.Cents)
		}
		budgets, err := store.Queries().ListBudgetsByMonth(ctx, month)
		if err != nil {
			t.Fatalf("ListBudgetsByMonth() error = %v", err)
		}
		if len(budgets) != 1 {
			t.Errorf("found %d budget rows, want 1 after case-insensitive adjust", len(budgets))
		}
	})

	t.Run("adjust creates from zero", func(t *testing.T) {
		store := newTestStore(t)
		service := NewBudgetService(store, nil)

		got, err := service.AdjustBudget(ctx, "Transport", month, 15_000)
		if err != nil {
			t.Fatalf("AdjustBudget() error = %v", err)
		}
		if got.MonthlyLimit.Cents != 15_000 {
			t.Errorf("limit = %d, want 15000", got.MonthlyLimit.Cents)
		}
	})

	t.Run("blank category", func(t *testing.T) {
		store := newTestStore(t)
		service := NewBudgetService(store, nil)

		if _, err := service.AdjustBudget(ctx, "  ", month, 1_000); !errors.Is(err, core.ErrEmptyCategory) {
			t.Errorf("AdjustBudget() error = %v, want ErrEmptyCategory", err)
		}
	})
}

func TestBudgetService_Delete(t *testing.T) {
	ctx := context.Background()
	month := core.Month("2026-03")
	store := newTestStore(t)
	service := NewBudgetService(store, nil)

	if err := service.SetBudget(ctx, core.Budget{Category: "Food", Month: month, MonthlyLimit: core.Money{Cents: 10_000}}); err != nil {
		t.Fatalf("SetBudget() error = %v", err)
	}
	if err := service.DeleteBudget(ctx, "Food", month); err != nil {
		t.Fatalf("DeleteBudget() error = %v", err)
	}
	if err := service.DeleteBudget(ctx, "Food", month); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteBudget() on missing budget error = %v, want ErrNotFound", err)
	}
}

func TestBudgetService_Status(t *testing.T) {
	ctx := context.Background()
	month := core.Month("2026-03")
	store := newTestStore(t)
	service := NewBudgetService(store, nil)
	ledger := NewLedgerService(store, nil)

	budgets := map[string]int64{
		"Food":      100_000, // will spend 50000 -> safe
		"Transport": 100_000, // will spend 85000 -> warning
		"Fun":       100_000, // will spend 120000 -> danger
	}
	for category, limit := range budgets {
		if err := service.SetBudget(ctx, core.Budget{Category: category, Month: month, MonthlyLimit: core.Money{Cents: limit}}); err != nil {
			t.Fatalf("SetBudget(%s) error = %v", category, err)
		}
	}

	spends := []AddTransactionParams{
		{AmountCents: 50_000, Category: "Food", Type: core.Expense, Date: "2026-03-05 12:00:00"},
		{AmountCents: 85_000, Category: "Transport", Type: core.Expense, Date: "2026-03-06 12:00:00"},
		{AmountCents: 120_000, Category: "Fun", Type: core.Expense, Date: "2026-03-07 12:00:00"},
		// Income in the same category must not count as spending.
		{AmountCents: 40_000, Category: "Food", Type: core.Income, Date: "2026-03-08 12:00:00"},
		// Another month stays out of scope.
		{AmountCents: 90_000, Category: "Food", Type: core.Expense, Date: "2026-04-01 12:00:00"},
	}
	for _, arg := range spends {
		if _, err := ledger.AddTransaction(ctx, arg); err != nil {
			t.Fatalf("AddTransaction() error = %v", err)
		}
	}

	statuses, err := service.Status(ctx, month)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if len(statuses) != 3 {
		t.Fatalf("Status() returned %d budgets, want 3", len(statuses))
	}

	byCategory := make(map[string]core.BudgetStatus, len(statuses))
	for _, status := range statuses {
		byCategory[status.Category] = status
	}

	tests := []struct {
		category   string
		spent      int64
		remaining  int64
		percentage float64
		level      string
	}{
		{category: "Food", spent: 50_000, remaining: 50_000, percentage: 50, level: core.LevelSafe},
		{category: "Transport", spent: 85_000, remaining: 15_000, percentage: 85, level: core.LevelWarning},
		{category: "Fun", spent: 120_000, remaining: -20_000, percentage: 120, level: core.LevelDanger},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			status, ok := byCategory[tt.category]
			if !ok {
				t.Fatalf("no status for %s", tt.category)
			}
			if status.Spent.Cents != tt.spent {
				t.Errorf("spent = %d, want %d", status.Spent.Cents, tt.spent)
			}
			if status.Remaining.Cents != tt.remaining {
				t.Errorf("remaining = %d, want %d", status.Remaining.Cents, tt.remaining)
			}
			if status.Percentage != tt.percentage {
				t.Errorf("percentage = %v, want %v", status.Percentage, tt.percentage)
			}
			if status.Level != tt.level {
				t.Errorf("level = %q, want %q", status.Level, tt.level)
			}
		})
	}
}

func TestEvaluateBudget_Boundaries(t *testing.T) {
	month := core.Month("2026-03")
	limit := core.Budget{Category: "Food", Month: month, MonthlyLimit: core.Money{Cents: 100_000}}

	tests := []struct {
		name  string
		spent int64
		level string
	}{
		{name: "just under warning", spent: 79_999, level: core.LevelSafe},
		{name: "exactly at warning", spent: 80_000, level: core.LevelWarning},
		{name: "just under danger", spent: 99_999, level: core.LevelWarning},
		{name: "exactly at limit", spent: 100_000, level: core.LevelDanger},
		{name: "over the limit", spent: 150_000, level: core.LevelDanger},
		{name: "nothing spent", spent: 0, level: core.LevelSafe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evaluateBudget(limit, tt.spent)
			if got.Level != tt.level {
				t.Errorf("evaluateBudget(spent=%d).Level = %q, want %q", tt.spent, got.Level, tt.level)
			}
		})
	}

	t.Run("zero limit with spending stays safe", func(t *testing.T) {
		got := evaluateBudget(core.Budget{Category: "Food", Month: month}, 1)
		if got.Percentage != 0 {
			t.Errorf("percentage = %v, want 0", got.Percentage)
		}
		if got.Level != core.LevelSafe {
			t.Errorf("level = %q, want safe", got.Level)
		}
	})

	t.Run("zero limit with no spending is safe", func(t *testing.T) {
		got := evaluateBudget(core.Budget{Category: "Food", Month: month}, 0)
		if got.Level != core.LevelSafe {
			t.Errorf("level = %q, want safe", got.Level)
		}
	})
}
