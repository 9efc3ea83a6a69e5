// Package memory holds an in-process backup writer. It backs local
// development and tests, and doubles as the default target when no
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/huy7715/money-tracker/internal/core"
)

// Row is one mirrored entry. Deleted marks a tombstone; tombstones
// carry only the ID and deletion time.
type Row struct {
	ID          int64
	Date        string
	Type        core.TxType
	Category    string
	AmountCents int64
	Description string
	AssetID     *int64
	Deleted     bool
	DeletedAt   time.Time
}

type Store struct {
	mu   sync.Mutex
	rows []Row
}

func New() *Store {
	return &Store{}
}

// Append stores the entry and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, tx core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, Row{
		ID:          tx.ID,
		Date:        tx.Date,
		Type:        tx.Type,
		Category:    tx.Category,
		AmountCents: tx.Amount.Cents,
		Description: tx.Description,
		AssetID:     tx.AssetID,
	})
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// AppendTombstone stores a deletion marker for the given entry ID.
func (s *Store) AppendTombstone(_ context.Context, id int64, deletedAt time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, Row{ID: id, Deleted: true, DeletedAt: deletedAt})
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far, in order.
func (s *Store) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Row(nil), s.rows...)
}
