package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/huy7715/money-tracker/internal/core"
)

func scanBudget(row interface{ Scan(dest ...any) error }) (core.Budget, error) {
	var b core.Budget
	err := row.Scan(&b.ID, &b.Category, &b.MonthlyLimit.Cents, &b.Month)
	return b, err
}

// UpsertBudget sets the limit for (category, month), overwriting an
// existing pair.
func (q *Queries) UpsertBudget(ctx context.Context, category string, limitCents int64, month core.Month) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO budgets (category, monthly_limit_cents, month)
		VALUES (?, ?, ?)
		ON CONFLICT (category, month) DO UPDATE SET monthly_limit_cents = excluded.monthly_limit_cents`,
		category, limitCents, string(month))
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

// GetBudget returns the budget for (category, month), or core.ErrNotFound.
func (q *Queries) GetBudget(ctx context.Context, category string, month core.Month) (core.Budget, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, category, monthly_limit_cents, month FROM budgets
		WHERE category = ? COLLATE NOCASE AND month = ?`, category, string(month))
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// ListBudgetsByMonth returns all budgets defined for one month.
func (q *Queries) ListBudgetsByMonth(ctx context.Context, month core.Month) ([]core.Budget, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, category, monthly_limit_cents, month FROM budgets
		WHERE month = ? ORDER BY category`, string(month))
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// DeleteBudget removes the (category, month) pair; core.ErrNotFound
// when no row matched.
func (q *Queries) DeleteBudget(ctx context.Context, category string, month core.Month) error {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE category = ? COLLATE NOCASE AND month = ?`, category, string(month))
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
