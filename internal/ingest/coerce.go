package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	digitsRe     = regexp.MustCompile(`\d+`)
	numberJunkRe = regexp.MustCompile(`[^\d.\-]`)
)

// dateLayouts are tried in order when coercing date cells. Exports mix ISO
// dates, slashed dates, and datetime stamps.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"2006.01.02",
	"01/02/2006",
	"2006-01-02T15:04:05",
}

// CleanPatientID extracts the numeric identifier token from a noisy cell.
// EMR CSV exports wrap IDs in ="..." to stop spreadsheets eating leading
// zeros; other exports add whitespace or unit suffixes. Returns "" when no
// digits are present.
func CleanPatientID(raw string) string {
	s := strings.ReplaceAll(raw, `="`, "")
	s = strings.ReplaceAll(s, `"`, "")
	return digitsRe.FindString(s)
}

// CoerceNumber parses a numeric cell tolerant of thousand separators,
// currency marks, and surrounding text. Unparseable values coerce to nil
// (missing), never to zero.
func CoerceNumber(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	s = numberJunkRe.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// CoerceDate parses a date cell against the known layouts. Unparseable
// values coerce to nil (missing); the row is kept, not dropped.
func CoerceDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			// Normalize to date precision; the ledger keys on calendar days.
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// NumberOrZero returns the coerced number or zero for missing values.
// Used for the monetary adjustment columns, where absence means "no
// discount/refund/receivable", matching the source system's semantics.
func NumberOrZero(raw string) float64 {
	if v := CoerceNumber(raw); v != nil {
		return *v
	}
	return 0
}
