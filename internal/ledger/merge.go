package ledger

import (
	"context"
	"log/slog"
	"strings"

	"clinicpulse/pkg/contracts/domain"
)

// MergeOptions controls the exclusion filters applied while folding a weekly
// batch into the cumulative ledger. Name lists are deployment configuration;
// they identify internal/test accounts and are never hardcoded here.
type MergeOptions struct {
	// ExcludedNames drops any row whose patient name contains one of these
	// substrings (internal and test accounts).
	ExcludedNames []string

	// ConsultOnlyStaff lists staff whose consultation-reservation visits are
	// excluded; these are bookings, not treatments.
	ConsultOnlyStaff []string

	// ConsultPurpose is the visit purpose that marks a consultation booking.
	ConsultPurpose string
}

// DefaultMergeOptions returns options with the standard consultation purpose
// and empty name lists.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{ConsultPurpose: "consultation reservation"}
}

// Merger folds weekly transaction batches into the cumulative ledger.
type Merger struct {
	logger *slog.Logger
	opts   MergeOptions
}

// NewMerger creates a ledger merger.
func NewMerger(logger *slog.Logger, opts MergeOptions) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ConsultPurpose == "" {
		opts.ConsultPurpose = "consultation reservation"
	}
	return &Merger{logger: logger, opts: opts}
}

// Merge unions a new batch into the existing ledger and returns the
// deduplicated result. The pipeline is, in order:
//
//  1. union existing + batch (existing rows first)
//  2. drop exact-duplicate rows
//  3. drop excluded accounts and consultation-only bookings
//  4. deduplicate by (patient_id, visit_date), keeping the first-seen row
//
// Because existing rows precede batch rows, the first-seen tie-break means
// the cumulative ledger always wins over a re-delivered batch row. Merging
// an empty batch returns the ledger unchanged.
func (m *Merger) Merge(ctx context.Context, existing domain.Ledger, batch []domain.TransactionRecord) domain.Ledger {
	combined := make(domain.Ledger, 0, len(existing)+len(batch))
	combined = append(combined, existing...)
	combined = append(combined, batch...)

	exactSeen := make(map[domain.TransactionRecord]struct{}, len(combined))
	keySeen := make(map[string]struct{}, len(combined))
	result := make(domain.Ledger, 0, len(combined))

	var exactDupes, keyDupes, excluded int

	for _, rec := range combined {
		if !rec.IsValid() {
			continue
		}
		if _, ok := exactSeen[rec]; ok {
			exactDupes++
			continue
		}
		exactSeen[rec] = struct{}{}

		if m.isExcluded(rec) {
			excluded++
			continue
		}

		key := rec.Key()
		if _, ok := keySeen[key]; ok {
			keyDupes++
			continue
		}
		keySeen[key] = struct{}{}

		result = append(result, rec)
	}

	m.logger.InfoContext(ctx, "merged batch into ledger",
		slog.Int("existing_rows", len(existing)),
		slog.Int("batch_rows", len(batch)),
		slog.Int("exact_duplicates", exactDupes),
		slog.Int("key_duplicates", keyDupes),
		slog.Int("excluded_rows", excluded),
		slog.Int("ledger_rows", len(result)))

	return result
}

// isExcluded applies the internal-account and consultation-only filters.
func (m *Merger) isExcluded(rec domain.TransactionRecord) bool {
	for _, name := range m.opts.ExcludedNames {
		if name != "" && strings.Contains(rec.PatientName, name) {
			return true
		}
	}
	if rec.VisitPurpose == m.opts.ConsultPurpose {
		for _, staff := range m.opts.ConsultOnlyStaff {
			if staff != "" && rec.AttendingStaff == staff {
				return true
			}
		}
	}
	return false
}

// ApplyTags joins the latest patient tag table onto the ledger in place.
// Rows for patients absent from the table keep their existing tag.
func ApplyTags(l domain.Ledger, tags map[string]string) {
	if len(tags) == 0 {
		return
	}
	for i := range l {
		if tag, ok := tags[l[i].PatientID]; ok && tag != "" {
			l[i].PatientTag = tag
		}
	}
}
