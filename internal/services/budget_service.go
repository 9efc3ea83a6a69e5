package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/huy7715/money-tracker/internal/amqp"
	"github.com/huy7715/money-tracker/internal/core"
	"github.com/huy7715/money-tracker/internal/storage"
)

// Budget level thresholds as a fraction of the monthly limit.
const (
	budgetWarningRatio = 0.8
	budgetDangerRatio  = 1.0
)

// BudgetService manages per-category monthly limits and evaluates
// spending against them.
type BudgetService struct {
	store  *storage.LedgerRepository
	events *amqp.Client
}

func NewBudgetService(store *storage.LedgerRepository, events *amqp.Client) *BudgetService {
	return &BudgetService{store: store, events: events}
}

// SetBudget creates or replaces the limit for a category and month.
func (s *BudgetService) SetBudget(ctx context.Context, budget core.Budget) error {
	if err := budget.Validate(); err != nil {
		return err
	}
	if err := s.store.Queries().UpsertBudget(ctx, budget.Category, budget.MonthlyLimit.Cents, budget.Month); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Budget set",
		"category", budget.Category, "month", budget.Month, "limit_cents", budget.MonthlyLimit.Cents)
	s.publishBudgetChange(ctx, amqp.ActionSet)
	return nil
}

// AdjustBudget moves the existing limit by deltaCents, clamping at
// zero. A missing budget starts from zero, so a positive adjustment
// also works as creation.
func (s *BudgetService) AdjustBudget(ctx context.Context, category string, month core.Month, deltaCents int64) (core.Budget, error) {
	if err := month.Validate(); err != nil {
		return core.Budget{}, err
	}
	if strings.TrimSpace(category) == "" {
		return core.Budget{}, core.ErrEmptyCategory
	}

	var current int64
	existing, err := s.store.Queries().GetBudget(ctx, category, month)
	switch {
	case err == nil:
		current = existing.MonthlyLimit.Cents
		// The lookup is case-insensitive but the unique key is not;
		// upsert under the stored casing so "food" adjusts the "Food"
		// row instead of creating a sibling.
		category = existing.Category
	case errors.Is(err, core.ErrNotFound):
		current = 0
	default:
		return core.Budget{}, err
	}

	next := current + deltaCents
	if next < 0 {
		next = 0
	}
	budget := core.Budget{
		Category:     category,
		Month:        month,
		MonthlyLimit: core.Money{Cents: next},
	}
	if err := s.store.Queries().UpsertBudget(ctx, category, next, month); err != nil {
		return core.Budget{}, err
	}
	slog.InfoContext(ctx, "Budget adjusted",
		"category", category, "month", month, "delta_cents", deltaCents, "limit_cents", next)
	s.publishBudgetChange(ctx, amqp.ActionSet)
	return budget, nil
}

// DeleteBudget removes the limit for a category and month; a missing
// budget surfaces as core.ErrNotFound.
func (s *BudgetService) DeleteBudget(ctx context.Context, category string, month core.Month) error {
	if err := s.store.Queries().DeleteBudget(ctx, category, month); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Budget deleted", "category", category, "month", month)
	s.publishBudgetChange(ctx, amqp.ActionDelete)
	return nil
}

// Status evaluates every budget defined for month against the expense
// total of its category, ordered by category name. Only expenses count
// toward spending; categories without a budget are absent.
func (s *BudgetService) Status(ctx context.Context, month core.Month) ([]core.BudgetStatus, error) {
	if err := month.Validate(); err != nil {
		return nil, err
	}
	budgets, err := s.store.Queries().ListBudgetsByMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	spending, err := s.store.Queries().SpendingByCategory(ctx, month)
	if err != nil {
		return nil, err
	}
	spentByCategory := make(map[string]int64, len(spending))
	for _, entry := range spending {
		spentByCategory[strings.ToLower(entry.Category)] += entry.Amount.Cents
	}

	statuses := make([]core.BudgetStatus, 0, len(budgets))
	for _, budget := range budgets {
		spent := spentByCategory[strings.ToLower(budget.Category)]
		statuses = append(statuses, evaluateBudget(budget, spent))
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Category < statuses[j].Category
	})
	return statuses, nil
}

// evaluateBudget computes remaining, percentage and level for one
// budget. A zero limit yields percentage 0, so spending against it
// still reads as safe.
func evaluateBudget(budget core.Budget, spentCents int64) core.BudgetStatus {
	status := core.BudgetStatus{
		Category:  budget.Category,
		Month:     budget.Month,
		Limit:     budget.MonthlyLimit,
		Spent:     core.Money{Cents: spentCents},
		Remaining: core.Money{Cents: budget.MonthlyLimit.Cents - spentCents},
		Level:     core.LevelSafe,
	}
	if budget.MonthlyLimit.Cents > 0 {
		status.Percentage = float64(spentCents) / float64(budget.MonthlyLimit.Cents) * 100
	}

	ratio := status.Percentage / 100
	switch {
	case ratio >= budgetDangerRatio:
		status.Level = core.LevelDanger
	case ratio >= budgetWarningRatio:
		status.Level = core.LevelWarning
	}
	return status
}

func (s *BudgetService) publishBudgetChange(ctx context.Context, action string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishDataEvent(ctx, "budget", action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish data event", "entity", "budget", "action", action, "error", err)
	}
}
