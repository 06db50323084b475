package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used in exported history points.
const DateLayout = "2006-01-02"

// FormatDate renders t as an ISO 8601 calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses an ISO 8601 calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// DayUTC returns UTC midnight of t's calendar day in t's own location.
func DayUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LookbackStart resolves a range such as "5d", "2wk", "3mo" or "1y" against end.
func LookbackStart(end time.Time, r string) (time.Time, error) {
	r = strings.TrimSpace(r)
	units := []struct {
		suffix string
		apply  func(n int) time.Time
	}{
		{"wk", func(n int) time.Time { return end.AddDate(0, 0, -7*n) }},
		{"mo", func(n int) time.Time { return end.AddDate(0, -n, 0) }},
		{"d", func(n int) time.Time { return end.AddDate(0, 0, -n) }},
		{"y", func(n int) time.Time { return end.AddDate(-n, 0, 0) }},
	}
	for _, u := range units {
		if !strings.HasSuffix(r, u.suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(r, u.suffix))
		if err != nil || n <= 0 {
			return time.Time{}, fmt.Errorf("invalid range '%s'", r)
		}
		return u.apply(n), nil
	}
	return time.Time{}, fmt.Errorf("invalid range '%s'", r)
}
