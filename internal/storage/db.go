package storage

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// every query can run either standalone or inside a unit of work.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries bundles all SQL statements against the ledger schema.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}
