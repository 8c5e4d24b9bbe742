package exporter

import (
	"strconv"
	"time"
)

// FormatAmount renders a monetary or distribution value with minimal
// trailing digits.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatCount renders an integer count.
func FormatCount(v int) string {
	return strconv.Itoa(v)
}

// FormatDate renders an optional date, empty when missing.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// FormatScore renders an optional numeric value, empty when missing. Forced
// grade rows carry no score and export as blank cells, not zeros.
func FormatScore(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
