package services

import (
	"context"
	"strings"
	"time"

	"github.com/huy7715/money-tracker/internal/core"
	"github.com/huy7715/money-tracker/internal/storage"
)

const diaryDateLayout = "2006-01-02"

// DiaryService manages the one-note-per-day journal attached to the
// ledger.
type DiaryService struct {
	store *storage.LedgerRepository
}

func NewDiaryService(store *storage.LedgerRepository) *DiaryService {
	return &DiaryService{store: store}
}

// Save upserts the entry for a day. An empty title and content deletes
// the entry instead, so clearing a note in place works as removal.
func (s *DiaryService) Save(ctx context.Context, entry storage.DiaryEntry) error {
	if _, err := time.Parse(diaryDateLayout, entry.Date); err != nil {
		return core.ErrInvalidDate
	}
	if strings.TrimSpace(entry.Title) == "" && strings.TrimSpace(entry.Content) == "" {
		return s.store.Queries().DeleteDiary(ctx, entry.Date)
	}
	return s.store.Queries().UpsertDiary(ctx, entry)
}

// Get returns the entry for a day; a day without one comes back empty.
func (s *DiaryService) Get(ctx context.Context, date string) (storage.DiaryEntry, error) {
	if _, err := time.Parse(diaryDateLayout, date); err != nil {
		return storage.DiaryEntry{}, core.ErrInvalidDate
	}
	return s.store.Queries().GetDiary(ctx, date)
}

// Dates lists every day with an entry, newest first.
func (s *DiaryService) Dates(ctx context.Context) ([]string, error) {
	return s.store.Queries().ListDiaryDates(ctx)
}
