package pipeline

import (
	"time"

	"clinicpulse/internal/errors"
)

// parseYearMonth parses a "2006-01" month key into the first day of that
// month.
func parseYearMonth(s string) (time.Time, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, errors.NewValidationError("invalid year-month: " + s)
	}
	return t, nil
}

// ParseAsOf parses the explicit as-of date every run must carry. An empty
// value defaults to today so the weekly cron needs no argument, but tests
// and backfills always pass one.
func ParseAsOf(s string) (time.Time, error) {
	if s == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.NewValidationError("invalid as-of date: " + s)
	}
	return t, nil
}
