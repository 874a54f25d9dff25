// Package clock holds the date/time utilities shared by the scheduling
// engine, plus an injectable clock so the engine can be tested against a
// frozen wall-clock.
package clock

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the calendar-date wire format (YYYY-MM-DD).
	DateLayout = "2006-01-02"
	// TimeLayout is the time-of-day wire format (HH:MM, 24h).
	TimeLayout = "15:04"
)

// Clock abstracts time.Now so scheduling logic stays deterministic in tests.
type Clock interface {
	Now() time.Time
}

// Real is the wall-clock implementation used in production.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Fixed is a frozen clock for tests.
type Fixed struct{ T time.Time }

func (f Fixed) Now() time.Time { return f.T }

// Combine merges a YYYY-MM-DD date and an HH:MM timing into one instant in
// local time, with seconds and subseconds zeroed.
func Combine(dateStr, timeStr string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, dateStr, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	t, err := time.Parse(TimeLayout, timeStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", timeStr, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.Local), nil
}

// IsOverdue reports whether scheduled lies strictly more than
// thresholdMinutes before now. At exactly the threshold it is not overdue.
func IsOverdue(scheduled, now time.Time, thresholdMinutes int) bool {
	return now.Sub(scheduled) > time.Duration(thresholdMinutes)*time.Minute
}

// SameDay reports whether a and b fall on the same calendar day in local time.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}

// FormatDate renders t as a YYYY-MM-DD string in local time.
func FormatDate(t time.Time) string {
	return t.Local().Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string into a local midnight instant.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// ReminderTime returns the instant minutesBefore ahead of scheduled.
func ReminderTime(scheduled time.Time, minutesBefore int) time.Time {
	return scheduled.Add(-time.Duration(minutesBefore) * time.Minute)
}
