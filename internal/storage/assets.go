package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/huy7715/money-tracker/internal/core"
)

// AssetParams carries the writable asset fields for create and update.
type AssetParams struct {
	Name                  string
	Kind                  core.AssetKind
	AmountCents           int64
	InterestRate          float64
	TermMonths            int64
	StartDate             string
	EndDate               string
	AutoContributionCents int64
	LastUpdatedMonth      *core.Month
}

const assetColumns = `id, name, kind, amount_cents, interest_rate, term_months,
	start_date, end_date, auto_contribution_cents, last_updated_month`

func scanAsset(row interface{ Scan(dest ...any) error }) (core.Asset, error) {
	var (
		a    core.Asset
		last sql.NullString
	)
	err := row.Scan(&a.ID, &a.Name, &a.Kind, &a.Amount.Cents, &a.InterestRate,
		&a.TermMonths, &a.StartDate, &a.EndDate, &a.AutoContribution.Cents, &last)
	if err != nil {
		return core.Asset{}, err
	}
	if last.Valid {
		m := core.Month(last.String)
		a.LastUpdatedMonth = &m
	}
	return a, nil
}

func nullMonth(m *core.Month) sql.NullString {
	if m == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*m), Valid: true}
}

// CreateAsset inserts an asset and returns its new ID.
func (q *Queries) CreateAsset(ctx context.Context, arg AssetParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO assets (name, kind, amount_cents, interest_rate, term_months,
			start_date, end_date, auto_contribution_cents, last_updated_month)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Name, arg.Kind, arg.AmountCents, arg.InterestRate, arg.TermMonths,
		arg.StartDate, arg.EndDate, arg.AutoContributionCents, nullMonth(arg.LastUpdatedMonth))
	if err != nil {
		return 0, fmt.Errorf("insert asset: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// GetAsset returns one asset, or core.ErrNotFound.
func (q *Queries) GetAsset(ctx context.Context, id int64) (core.Asset, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE id = ?`, id)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Asset{}, core.ErrNotFound
	}
	if err != nil {
		return core.Asset{}, fmt.Errorf("get asset: %w", err)
	}
	return a, nil
}

// ListAssets returns all assets in creation order.
func (q *Queries) ListAssets(ctx context.Context) ([]core.Asset, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM assets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []core.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// UpdateAsset replaces every writable field of an asset.
func (q *Queries) UpdateAsset(ctx context.Context, id int64, arg AssetParams) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE assets
		SET name = ?, kind = ?, amount_cents = ?, interest_rate = ?, term_months = ?,
			start_date = ?, end_date = ?, auto_contribution_cents = ?, last_updated_month = ?
		WHERE id = ?`,
		arg.Name, arg.Kind, arg.AmountCents, arg.InterestRate, arg.TermMonths,
		arg.StartDate, arg.EndDate, arg.AutoContributionCents, nullMonth(arg.LastUpdatedMonth), id)
	if err != nil {
		return fmt.Errorf("update asset: %w", err)
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

// DeleteAsset removes an asset; core.ErrNotFound when no row matched.
func (q *Queries) DeleteAsset(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
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

// AdjustAssetAmount applies a signed delta to the asset's running
// balance against the row's current value. last_updated_month is left
// untouched. Returns core.ErrAssetMissing when the asset does not exist.
func (q *Queries) AdjustAssetAmount(ctx context.Context, id int64, deltaCents int64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE assets SET amount_cents = amount_cents + ? WHERE id = ?`, deltaCents, id)
	if err != nil {
		return fmt.Errorf("adjust asset amount: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrAssetMissing
	}
	return nil
}

// AdvanceAssetContributionMonth moves the recurring-contribution marker
// forward to month, but only when the stored marker is unset or strictly
// before it. Returns false when the guard did not match — the asset is
// gone, or another process already claimed the month. The guard is what
// keeps concurrent schedulers from double-applying a contribution, so
// callers must run it inside the same unit of work as the contribution
// itself and skip the write when it reports false.
func (q *Queries) AdvanceAssetContributionMonth(ctx context.Context, id int64, month core.Month) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE assets SET last_updated_month = ?
		WHERE id = ? AND (last_updated_month IS NULL OR last_updated_month < ?)`,
		string(month), id, string(month))
	if err != nil {
		return false, fmt.Errorf("advance contribution month: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
