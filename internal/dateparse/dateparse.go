// Package dateparse provides natural language date parsing for CLI flags.
package dateparse

import (
	"fmt"
	"time"

	"github.com/tj/go-naturaldate"
)

// Parse parses a date string which can be:
// - Natural language: "today", "tomorrow", "next week", etc.
// - ISO 8601 date: "2026-01-15"
// - ISO 8601 datetime: "2026-01-15T09:00:00"
//
// The reference time is used for relative expressions (e.g., "tomorrow" is
// relative to ref). If ref is zero, time.Now() is used.
func Parse(s string, ref time.Time) (time.Time, error) {
	return parse(s, ref, naturaldate.Future)
}

// ParsePast parses a date string with past direction, for flags that bound a
// historical window ("yesterday", "last week" for --since/--until).
func ParsePast(s string, ref time.Time) (time.Time, error) {
	return parse(s, ref, naturaldate.Past)
}

func parse(s string, ref time.Time, direction naturaldate.Direction) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	if ref.IsZero() {
		ref = time.Now()
	}

	// Try ISO 8601 datetime first
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	// Try ISO 8601 datetime without timezone
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, ref.Location()); err == nil {
		return t, nil
	}

	// Try ISO 8601 date only (midnight local time)
	if t, err := time.ParseInLocation("2006-01-02", s, ref.Location()); err == nil {
		return t, nil
	}

	t, err := naturaldate.Parse(s, ref, naturaldate.WithDirection(direction))
	if err != nil {
		return time.Time{}, fmt.Errorf("could not parse date %q: %w", s, err)
	}

	return t, nil
}

// StartOfDay returns the start of day (midnight) for the given time.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatISO8601 formats a time as ISO 8601 string for the service APIs.
func FormatISO8601(t time.Time) string {
	return t.Format(time.RFC3339)
}
