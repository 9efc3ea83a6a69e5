package storage

import (
	"context"
	"fmt"

	"github.com/huy7715/money-tracker/internal/core"
)

// Backup tracking. Every ledger entry starts out 'pending'; the backup
// worker flips it to 'done' once the row has been mirrored to the
// backup spreadsheet, or to 'error' so a later sweep can retry it.

// PendingBackups returns entries not yet mirrored, oldest first. Rows
// marked 'error' are included so transient failures get retried.
func (q *Queries) PendingBackups(ctx context.Context, limit int) ([]core.Transaction, error) {
	return q.listTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE backup_status IN ('pending', 'error')
		 ORDER BY id ASC LIMIT ?`, limit)
}

// MarkBackedUp records a successful mirror of one entry.
func (q *Queries) MarkBackedUp(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE transactions
		SET backup_status = 'done', backed_up_at = datetime('now')
		WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark backed up: %w", err)
	}
	return nil
}

// MarkBackupError flags an entry whose mirror attempt failed.
func (q *Queries) MarkBackupError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE transactions SET backup_status = 'error' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark backup error: %w", err)
	}
	return nil
}
