package utils

import (
	"fmt"
	"strconv"
	"time"
)

// ISTLocation is the canonical business timezone (UTC+05:30). Every ledger
// date and timestamp is recorded in IST regardless of the server's locale.
var ISTLocation = time.FixedZone("IST", 5*3600+30*60)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

func NowIST() time.Time {
	return time.Now().In(ISTLocation)
}

// NowISTString returns the full ISO-8601 timestamp in IST.
func NowISTString() string {
	return NowIST().Format("2006-01-02T15:04:05+05:30")
}

// TodayIST returns the current IST calendar date (YYYY-MM-DD).
func TodayIST() string {
	return NowIST().Format(DateLayout)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, ISTLocation)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// DateRange expands [start, end] into the inclusive list of calendar dates.
func DateRange(start, end string) ([]string, error) {
	from, err := ParseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := ParseDate(end)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("end_date %s is before start_date %s", end, start)
	}
	var dates []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates, nil
}

// MonthBounds returns the first and last calendar dates of a YYYY-MM month.
func MonthBounds(month string) (string, string, error) {
	t, err := time.ParseInLocation(MonthLayout, month, ISTLocation)
	if err != nil {
		return "", "", fmt.Errorf("invalid month %q, expected YYYY-MM", month)
	}
	first := t
	last := t.AddDate(0, 1, -1)
	return first.Format(DateLayout), last.Format(DateLayout), nil
}

// LastNDays returns [today-(n-1), today] in IST.
func LastNDays(n int) (string, string) {
	end := NowIST()
	start := end.AddDate(0, 0, -(n - 1))
	return start.Format(DateLayout), end.Format(DateLayout)
}

// DayOfMonthKey maps a YYYY-MM-DD date to its day-of-month grid key ("1".."31").
func DayOfMonthKey(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(t.Day()), nil
}
