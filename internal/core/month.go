// Package core holds the domain model of the tracker: transactions,
// assets, budgets and the month/amount value types they share.
package core

import (
	"fmt"
	"time"
)

// Month is a calendar month in zero-padded "YYYY-MM" form. The padding
// is validated at the boundary so that string comparison between two
// Months is also chronological comparison.
type Month string

// ParseMonth validates s as a zero-padded YYYY-MM month.
func ParseMonth(s string) (Month, error) {
	m := Month(s)
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

func (m Month) Validate() error {
	if len(m) != 7 || m[4] != '-' {
		return ErrInvalidMonth
	}
	if _, err := time.Parse("2006-01", string(m)); err != nil {
		return ErrInvalidMonth
	}
	return nil
}

// Before reports whether m is strictly earlier than other. Valid only
// for zero-padded months, which Validate guarantees.
func (m Month) Before(other Month) bool {
	return string(m) < string(other)
}

// FirstSecond is the timestamp used for injected recurring
// contributions: the first day of the month, one second past midnight,
// so the entry sorts deterministically against same-day manual entries.
func (m Month) FirstSecond() string {
	return fmt.Sprintf("%s-01 00:00:01", m)
}

// MonthOf returns the Month containing t.
func MonthOf(t time.Time) Month {
	return Month(t.Format("2006-01"))
}

// CurrentMonth returns the Month containing the current time.
func CurrentMonth() Month {
	return MonthOf(time.Now())
}
