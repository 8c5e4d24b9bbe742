// Package roster builds dated VIP/VVIP roster snapshots and classifies
// week-over-week membership transitions between them.
package roster

import (
	"context"
	"log/slog"
	"time"

	"clinicpulse/pkg/contracts/domain"
)

// SnapshotOptions configures roster membership.
type SnapshotOptions struct {
	// VIPThreshold and VVIPThreshold are lifetime net revenue bounds in KRW.
	VIPThreshold  float64
	VVIPThreshold float64

	// RecencyWindowDays bounds how long ago the last visit may be for roster
	// inclusion.
	RecencyWindowDays int
}

// DefaultSnapshotOptions returns the standard membership thresholds and a
// 180 day recency window.
func DefaultSnapshotOptions() SnapshotOptions {
	return SnapshotOptions{
		VIPThreshold:      domain.VIPRevenueThreshold,
		VVIPThreshold:     domain.VVIPRevenueThreshold,
		RecencyWindowDays: 180,
	}
}

// SnapshotBuilder filters a classified summary table into a dated roster.
type SnapshotBuilder struct {
	logger *slog.Logger
	opts   SnapshotOptions
}

// NewSnapshotBuilder creates a roster snapshot builder.
func NewSnapshotBuilder(logger *slog.Logger, opts SnapshotOptions) *SnapshotBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotBuilder{logger: logger, opts: opts}
}

// Snapshot captures the VIP/VVIP roster as of a date. Membership requires a
// VIP-tier revenue grade and a last visit inside the recency window; rows
// with no last visit date bypass the recency filter with a warning rather
// than dropping silently. Duplicate patient names keep the first occurrence
// in summary-table order, which the aggregation stage sorts by patient ID.
func (b *SnapshotBuilder) Snapshot(ctx context.Context, summaries []domain.PatientSummary, asOf time.Time) domain.RosterSnapshot {
	entries := make([]domain.RosterEntry, 0)
	seen := make(map[string]struct{})
	var noRecency int

	for _, p := range summaries {
		grade := b.gradeFor(p.NetRevenueTotal)
		if !grade.IsVIP() {
			continue
		}

		// Visits after the as-of date count as recent, so backfills with a
		// past as-of date keep their currently active patients.
		days, ok := p.DaysSinceLastVisit(asOf)
		if ok && days > b.opts.RecencyWindowDays {
			continue
		}
		if !ok {
			noRecency++
		}

		if _, dup := seen[p.Name]; dup {
			continue
		}
		seen[p.Name] = struct{}{}

		entries = append(entries, domain.RosterEntry{
			PatientName:   p.Name,
			Contact:       p.Contact,
			NetRevenue:    p.NetRevenueTotal,
			LastVisitDate: p.LastVisitDate,
			Grade:         grade,
		})
	}

	if noRecency > 0 {
		b.logger.WarnContext(ctx, "roster entries admitted without recency check",
			slog.Int("count", noRecency))
	}
	if len(entries) == 0 {
		b.logger.WarnContext(ctx, "roster snapshot is empty",
			slog.String("as_of", asOf.Format("2006-01-02")))
	} else {
		b.logger.InfoContext(ctx, "built roster snapshot",
			slog.String("as_of", asOf.Format("2006-01-02")),
			slog.Int("entry_count", len(entries)))
	}

	return domain.RosterSnapshot{CaptureDate: asOf, Entries: entries}
}

// gradeFor classifies lifetime revenue against the configured thresholds.
func (b *SnapshotBuilder) gradeFor(total float64) domain.RevenueTier {
	switch {
	case total >= b.opts.VVIPThreshold:
		return domain.TierVVIP
	case total >= b.opts.VIPThreshold:
		return domain.TierVIP
	default:
		return domain.TierStandard
	}
}
