// Package storage is the durable ledger store: SQLite-backed records
// for transactions, assets, budgets and diary entries, plus the unit of
// work the reconciliation engine runs its multi-step sequences in.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type LedgerRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewLedgerRepository(dbPath string) (*LedgerRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &LedgerRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *LedgerRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Queries returns the statement set bound to the plain connection, for
// single-statement reads and writes.
func (r *LedgerRepository) Queries() *Queries {
	return r.queries
}

// WithinTx runs fn inside one SQLite transaction. Every multi-step
// reconciliation sequence goes through here so a failure in a later
// step rolls back the earlier ones instead of leaving the ledger and a
// derived balance out of sync.
func (r *LedgerRepository) WithinTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(r.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
