package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/huy7715/money-tracker/internal/core"
)

// CreateTransactionParams carries the insert values for one ledger entry.
type CreateTransactionParams struct {
	AmountCents int64
	Category    string
	Type        core.TxType
	Description string
	Date        string
	AssetID     *int64
}

// UpdateTransactionParams carries the replacement field values for an
// existing ledger entry. The asset link is intentionally absent: edits
// never reassign a transaction to a different asset.
type UpdateTransactionParams struct {
	ID          int64
	AmountCents int64
	Category    string
	Type        core.TxType
	Description string
	Date        string
}

const transactionColumns = `id, amount_cents, category, type, description, date, asset_id`

func scanTransaction(row interface{ Scan(dest ...any) error }) (core.Transaction, error) {
	var (
		tx      core.Transaction
		assetID sql.NullInt64
	)
	err := row.Scan(&tx.ID, &tx.Amount.Cents, &tx.Category, &tx.Type, &tx.Description, &tx.Date, &assetID)
	if err != nil {
		return core.Transaction{}, err
	}
	if assetID.Valid {
		tx.AssetID = &assetID.Int64
	}
	return tx, nil
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

// CreateTransaction inserts a ledger entry and returns it with its new ID.
func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (core.Transaction, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO transactions (amount_cents, category, type, description, date, asset_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		arg.AmountCents, arg.Category, arg.Type, arg.Description, arg.Date, nullID(arg.AssetID))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("last insert id: %w", err)
	}
	return core.Transaction{
		ID:          id,
		Amount:      core.Money{Cents: arg.AmountCents},
		Category:    arg.Category,
		Type:        arg.Type,
		Description: arg.Description,
		Date:        arg.Date,
		AssetID:     arg.AssetID,
	}, nil
}

// GetTransaction returns one ledger entry, or core.ErrNotFound.
func (q *Queries) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// UpdateTransaction persists new field values on an existing row. The
// backup status drops back to pending so the edited entry gets mirrored
// again.
func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount_cents = ?, category = ?, type = ?, description = ?, date = ?,
		    backup_status = 'pending'
		WHERE id = ?`,
		arg.AmountCents, arg.Category, arg.Type, arg.Description, arg.Date, arg.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
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

// DeleteTransaction removes a row; core.ErrNotFound when no row matched.
func (q *Queries) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
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

// ListTransactions returns all ledger entries, newest first.
func (q *Queries) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return q.listTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY date DESC, id DESC`)
}

// ListTransactionsByMonth returns one month's entries, newest first.
func (q *Queries) ListTransactionsByMonth(ctx context.Context, month core.Month) ([]core.Transaction, error) {
	return q.listTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE substr(date, 1, 7) = ? ORDER BY date DESC, id DESC`, string(month))
}

func (q *Queries) listTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// SumByType returns the all-time total for one transaction type.
func (q *Queries) SumByType(ctx context.Context, t core.TxType) (int64, error) {
	var sum sql.NullInt64
	err := q.db.QueryRowContext(ctx,
		`SELECT SUM(amount_cents) FROM transactions WHERE type = ?`, t).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum by type: %w", err)
	}
	return sum.Int64, nil
}

// SumByTypeInMonth returns one month's total for one transaction type.
func (q *Queries) SumByTypeInMonth(ctx context.Context, t core.TxType, month core.Month) (int64, error) {
	var sum sql.NullInt64
	err := q.db.QueryRowContext(ctx, `
		SELECT SUM(amount_cents) FROM transactions
		WHERE type = ? AND substr(date, 1, 7) = ?`, t, string(month)).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum by type in month: %w", err)
	}
	return sum.Int64, nil
}

// LinkedActivityAfter sums an asset's linked income and expense amounts
// dated strictly after the given month. Feeds the point-in-time balance
// reconstruction.
func (q *Queries) LinkedActivityAfter(ctx context.Context, assetID int64, month core.Month) (income, expense int64, err error) {
	var inc, exp sql.NullInt64
	err = q.db.QueryRowContext(ctx, `
		SELECT
			SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END),
			SUM(CASE WHEN type = 'expense' THEN amount_cents ELSE 0 END)
		FROM transactions
		WHERE asset_id = ? AND substr(date, 1, 7) > ?`, assetID, string(month)).Scan(&inc, &exp)
	if err != nil {
		return 0, 0, fmt.Errorf("linked activity after %s: %w", month, err)
	}
	return inc.Int64, exp.Int64, nil
}

// SpendingByCategory returns per-category expense totals for one month.
func (q *Queries) SpendingByCategory(ctx context.Context, month core.Month) ([]core.CategoryAmount, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT category, SUM(amount_cents)
		FROM transactions
		WHERE type = 'expense' AND substr(date, 1, 7) = ?
		GROUP BY category
		ORDER BY SUM(amount_cents) DESC`, string(month))
	if err != nil {
		return nil, fmt.Errorf("spending by category: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryAmount
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Category, &ca.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		out = append(out, ca)
	}
	return out, rows.Err()
}

// CountInMonth returns the number of entries dated inside a month.
func (q *Queries) CountInMonth(ctx context.Context, month core.Month) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE substr(date, 1, 7) = ?`, string(month)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count in month: %w", err)
	}
	return n, nil
}

// AvailableMonths lists every month with at least one entry, newest first.
func (q *Queries) AvailableMonths(ctx context.Context) ([]core.Month, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT DISTINCT substr(date, 1, 7) FROM transactions ORDER BY 1 DESC`)
	if err != nil {
		return nil, fmt.Errorf("available months: %w", err)
	}
	defer rows.Close()

	var months []core.Month
	for rows.Next() {
		var m core.Month
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		months = append(months, m)
	}
	return months, rows.Err()
}
