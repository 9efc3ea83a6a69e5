package memory

import (
	"context"
	"testing"
	"time"

	"github.com/huy7715/money-tracker/internal/core"
)

func TestStoreAppend(t *testing.T) {
	s := New()

	assetID := int64(3)
	ref, err := s.Append(context.Background(), core.Transaction{
		ID:          1,
		Amount:      core.Money{Cents: 4500},
		Category:    "Food",
		Type:        core.Expense,
		Description: "lunch",
		Date:        "2026-03-10 13:00:00",
		AssetID:     &assetID,
	})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	rows := s.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.ID != 1 || row.AmountCents != 4500 || row.Type != core.Expense {
		t.Errorf("unexpected row: %+v", row)
	}
	if row.AssetID == nil || *row.AssetID != 3 {
		t.Errorf("expected asset link 3, got %v", row.AssetID)
	}
	if row.Deleted {
		t.Error("append must not produce a tombstone")
	}
}

func TestStoreAppendTombstone(t *testing.T) {
	s := New()

	at := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)
	ref, err := s.AppendTombstone(context.Background(), 7, at)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected tombstone append: ref=%q err=%v", ref, err)
	}

	rows := s.Rows()
	if len(rows) != 1 || !rows[0].Deleted {
		t.Fatalf("expected one tombstone row, got %+v", rows)
	}
	if rows[0].ID != 7 || !rows[0].DeletedAt.Equal(at) {
		t.Errorf("unexpected tombstone: %+v", rows[0])
	}
}

func TestStoreRowsIsACopy(t *testing.T) {
	s := New()
	if _, err := s.Append(context.Background(), core.Transaction{ID: 1, Amount: core.Money{Cents: 100}, Category: "Misc", Type: core.Income, Date: "2026-01-01 00:00:01"}); err != nil {
		t.Fatal(err)
	}

	rows := s.Rows()
	rows[0].ID = 99

	if got := s.Rows()[0].ID; got != 1 {
		t.Errorf("mutating the returned slice leaked into the store: id=%d", got)
	}
}
