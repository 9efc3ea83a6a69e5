package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DiaryEntry is a per-day free-text note.
type DiaryEntry struct {
	Date    string // YYYY-MM-DD
	Title   string
	Content string
}

// UpsertDiary writes the entry for a date, replacing an existing one.
func (q *Queries) UpsertDiary(ctx context.Context, e DiaryEntry) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO diary (date, title, content)
		VALUES (?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET title = excluded.title, content = excluded.content`,
		e.Date, e.Title, e.Content)
	if err != nil {
		return fmt.Errorf("upsert diary: %w", err)
	}
	return nil
}

// DeleteDiary removes a date's entry. Missing entries are not an error:
// clearing an empty day is a no-op.
func (q *Queries) DeleteDiary(ctx context.Context, date string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM diary WHERE date = ?`, date); err != nil {
		return fmt.Errorf("delete diary: %w", err)
	}
	return nil
}

// GetDiary returns the entry for a date, or an empty entry when none exists.
func (q *Queries) GetDiary(ctx context.Context, date string) (DiaryEntry, error) {
	var e DiaryEntry
	err := q.db.QueryRowContext(ctx,
		`SELECT date, title, content FROM diary WHERE date = ?`, date).
		Scan(&e.Date, &e.Title, &e.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return DiaryEntry{Date: date}, nil
	}
	if err != nil {
		return DiaryEntry{}, fmt.Errorf("get diary: %w", err)
	}
	return e, nil
}

// ListDiaryDates returns every date with an entry, newest first.
func (q *Queries) ListDiaryDates(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT date FROM diary ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list diary dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan diary date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
