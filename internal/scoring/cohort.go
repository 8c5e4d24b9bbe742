package scoring

import (
	"time"

	"clinicpulse/pkg/contracts/domain"
)

// knownCohorts are the valid cohort labels.
var knownCohorts = []string{"A", "C", "D", "E"}

// CohortResolver assigns a cohort label to a patient. Resolution may also
// rewrite the display name so the label survives round trips through
// exported artifacts.
type CohortResolver interface {
	Resolve(p domain.PatientSummary) (label, displayName string)
}

// TrailingLetterResolver derives the cohort from the last alphabetic
// character embedded in the patient name. Names without a recognized letter
// fall back to the first purchase year and get the derived letter appended,
// so the next export carries it explicitly.
type TrailingLetterResolver struct{}

// Resolve implements CohortResolver.
func (TrailingLetterResolver) Resolve(p domain.PatientSummary) (string, string) {
	name := p.Name
	if label, ok := trailingCohortLetter(name); ok {
		return label, name
	}
	label := cohortForYear(p.FirstPurchaseDate)
	return label, name + label
}

// trailingCohortLetter scans the name for alphabetic characters and returns
// the last one when it is a known cohort label.
func trailingCohortLetter(name string) (string, bool) {
	var last rune
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			last = r
		}
	}
	if last == 0 {
		return "", false
	}
	if last >= 'a' && last <= 'z' {
		last -= 'a' - 'A'
	}
	for _, c := range knownCohorts {
		if string(last) == c {
			return c, true
		}
	}
	return "", false
}

// cohortForYear maps a first purchase year onto a cohort label. Patients
// acquired in 2024 are cohort A, 2025 cohort E, everything else defaults
// to A.
func cohortForYear(first *time.Time) string {
	if first == nil {
		return "A"
	}
	switch first.Year() {
	case 2024:
		return "A"
	case 2025:
		return "E"
	default:
		return "A"
	}
}
