package sheets

import (
	"context"
	"time"

	"github.com/huy7715/money-tracker/internal/core"
)

// BackupWriter mirrors ledger entries into an append-only backup sheet.
// The sheet is a journal, not a replica: edits append a fresh row and
// deletions append a tombstone, so the mutation history survives even
// when the local database is lost.
type BackupWriter interface {
	// Append writes one ledger entry and returns a reference to the
	// written row.
	Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)

	// AppendTombstone records that the entry with the given ID was
	// deleted at the given time.
	AppendTombstone(ctx context.Context, id int64, deletedAt time.Time) (rowRef string, err error)
}
