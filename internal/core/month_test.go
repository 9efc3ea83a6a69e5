package core

import (
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2026-02", true},
		{"1999-12", true},
		{"2026-2", false}, // not zero-padded, lexical order would break
		{"2026-13", false},
		{"2026/02", false},
		{"202602", false},
		{"", false},
	}
	for _, tc := range cases {
		_, err := ParseMonth(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q expected ok, got %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMonthBefore(t *testing.T) {
	if !Month("2025-12").Before("2026-01") {
		t.Fatalf("2025-12 should be before 2026-01")
	}
	if Month("2026-02").Before("2026-02") {
		t.Fatalf("a month is not before itself")
	}
	if Month("2026-03").Before("2026-02") {
		t.Fatalf("2026-03 is not before 2026-02")
	}
}

func TestMonthFirstSecond(t *testing.T) {
	if got := Month("2026-02").FirstSecond(); got != "2026-02-01 00:00:01" {
		t.Fatalf("got %q", got)
	}
}

func TestMonthOf(t *testing.T) {
	d := time.Date(2026, time.February, 27, 10, 0, 0, 0, time.UTC)
	if got := MonthOf(d); got != Month("2026-02") {
		t.Fatalf("got %q", got)
	}
}
