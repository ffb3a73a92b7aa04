package utils

import (
	"strings"
	"testing"
)

func TestDateRange(t *testing.T) {
	dates, err := DateRange("2026-02-26", "2026-03-02")
	if err != nil {
		t.Fatalf("DateRange error: %v", err)
	}
	expected := []string{"2026-02-26", "2026-02-27", "2026-02-28", "2026-03-01", "2026-03-02"}
	if len(dates) != len(expected) {
		t.Fatalf("expected %d dates, got %d: %v", len(expected), len(dates), dates)
	}
	for i, d := range expected {
		if dates[i] != d {
			t.Fatalf("dates[%d] expected %s, got %s", i, d, dates[i])
		}
	}
}

func TestDateRange_SingleDay(t *testing.T) {
	dates, err := DateRange("2026-01-15", "2026-01-15")
	if err != nil {
		t.Fatalf("DateRange error: %v", err)
	}
	if len(dates) != 1 || dates[0] != "2026-01-15" {
		t.Fatalf("expected single date, got %v", dates)
	}
}

func TestDateRange_EndBeforeStart(t *testing.T) {
	if _, err := DateRange("2026-01-15", "2026-01-14"); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func TestMonthBounds(t *testing.T) {
	cases := []struct {
		month string
		first string
		last  string
	}{
		{"2026-01", "2026-01-01", "2026-01-31"},
		{"2026-02", "2026-02-01", "2026-02-28"},
		{"2024-02", "2024-02-01", "2024-02-29"},
		{"2026-04", "2026-04-01", "2026-04-30"},
	}
	for _, tc := range cases {
		first, last, err := MonthBounds(tc.month)
		if err != nil {
			t.Fatalf("MonthBounds(%q) error: %v", tc.month, err)
		}
		if first != tc.first || last != tc.last {
			t.Fatalf("MonthBounds(%q) expected (%s, %s), got (%s, %s)",
				tc.month, tc.first, tc.last, first, last)
		}
	}
}

func TestMonthBounds_Invalid(t *testing.T) {
	if _, _, err := MonthBounds("2026-13"); err == nil {
		t.Fatal("expected error for month 13")
	}
	if _, _, err := MonthBounds("January 2026"); err == nil {
		t.Fatal("expected error for non-ISO month")
	}
}

func TestDayOfMonthKey(t *testing.T) {
	cases := []struct {
		date string
		key  string
	}{
		{"2026-08-01", "1"},
		{"2026-08-09", "9"},
		{"2026-08-31", "31"},
	}
	for _, tc := range cases {
		key, err := DayOfMonthKey(tc.date)
		if err != nil {
			t.Fatalf("DayOfMonthKey(%q) error: %v", tc.date, err)
		}
		if key != tc.key {
			t.Fatalf("DayOfMonthKey(%q) expected %s, got %s", tc.date, tc.key, key)
		}
	}
}

func TestParseDate_Invalid(t *testing.T) {
	if _, err := ParseDate("15-08-2026"); err == nil {
		t.Fatal("expected error for DD-MM-YYYY input")
	}
}

func TestLastNDays(t *testing.T) {
	start, end := LastNDays(7)
	dates, err := DateRange(start, end)
	if err != nil {
		t.Fatalf("DateRange error: %v", err)
	}
	if len(dates) != 7 {
		t.Fatalf("expected a 7 day window, got %d days", len(dates))
	}
	if end != TodayIST() {
		t.Fatalf("window should end today, got %s", end)
	}
}

func TestNowISTString_CarriesOffset(t *testing.T) {
	if ts := NowISTString(); !strings.HasSuffix(ts, "+05:30") {
		t.Fatalf("timestamp missing IST offset: %s", ts)
	}
}
