package roster

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicpulse/pkg/contracts/domain"
)

var asOf = time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func summaryRow(id, name string, revenue float64, lastVisit *time.Time) domain.PatientSummary {
	return domain.PatientSummary{
		PatientID:       id,
		Name:            name,
		NetRevenueTotal: revenue,
		LastVisitDate:   lastVisit,
	}
}

func TestSnapshotBuilder_FiltersByTierAndRecency(t *testing.T) {
	b := NewSnapshotBuilder(nil, DefaultSnapshotOptions())
	summaries := []domain.PatientSummary{
		summaryRow("1", "Kim", 6_000_000, datePtr(2025, 7, 1)),    // VIP, recent
		summaryRow("2", "Lee", 12_000_000, datePtr(2025, 6, 1)),   // VVIP, recent
		summaryRow("3", "Park", 4_000_000, datePtr(2025, 7, 1)),   // below threshold
		summaryRow("4", "Choi", 8_000_000, datePtr(2024, 12, 1)),  // outside 180 days
	}

	snap := b.Snapshot(context.Background(), summaries, asOf)

	assert.Equal(t, asOf, snap.CaptureDate)
	require.Len(t, snap.Entries, 2)
	assert.Equal(t, "Kim", snap.Entries[0].PatientName)
	assert.Equal(t, domain.TierVIP, snap.Entries[0].Grade)
	assert.Equal(t, "Lee", snap.Entries[1].PatientName)
	assert.Equal(t, domain.TierVVIP, snap.Entries[1].Grade)
}

func TestSnapshotBuilder_NoRecencyBypassesWindow(t *testing.T) {
	b := NewSnapshotBuilder(nil, DefaultSnapshotOptions())
	summaries := []domain.PatientSummary{
		summaryRow("1", "Kim", 6_000_000, nil),
	}

	snap := b.Snapshot(context.Background(), summaries, asOf)
	require.Len(t, snap.Entries, 1, "missing recency admits with a warning, not a drop")
}

func TestSnapshotBuilder_FutureVisitCountsAsRecent(t *testing.T) {
	// Backfill with a past as-of date: a visit after asOf keeps the patient
	// on the roster.
	b := NewSnapshotBuilder(nil, DefaultSnapshotOptions())
	summaries := []domain.PatientSummary{
		summaryRow("1", "Kim", 6_000_000, datePtr(2025, 8, 15)),
	}

	snap := b.Snapshot(context.Background(), summaries, asOf)
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, "Kim", snap.Entries[0].PatientName)
}

func TestSnapshotBuilder_DeduplicatesByNameFirstSeen(t *testing.T) {
	b := NewSnapshotBuilder(nil, DefaultSnapshotOptions())
	summaries := []domain.PatientSummary{
		summaryRow("1", "Kim", 6_000_000, datePtr(2025, 7, 1)),
		summaryRow("2", "Kim", 11_000_000, datePtr(2025, 7, 2)),
	}

	snap := b.Snapshot(context.Background(), summaries, asOf)
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, 6_000_000.0, snap.Entries[0].NetRevenue, "first occurrence in table order wins")
}

func TestSnapshotBuilder_CustomThresholds(t *testing.T) {
	b := NewSnapshotBuilder(nil, SnapshotOptions{
		VIPThreshold:      1_000_000,
		VVIPThreshold:     2_000_000,
		RecencyWindowDays: 30,
	})
	summaries := []domain.PatientSummary{
		summaryRow("1", "Kim", 1_500_000, datePtr(2025, 7, 20)),
		summaryRow("2", "Lee", 2_500_000, datePtr(2025, 7, 20)),
		summaryRow("3", "Park", 1_500_000, datePtr(2025, 6, 1)), // outside 30 days
	}

	snap := b.Snapshot(context.Background(), summaries, asOf)
	require.Len(t, snap.Entries, 2)
	assert.Equal(t, domain.TierVIP, snap.Entries[0].Grade)
	assert.Equal(t, domain.TierVVIP, snap.Entries[1].Grade)
}

func TestSnapshotBuilder_EmptyResultIsWellFormed(t *testing.T) {
	b := NewSnapshotBuilder(nil, DefaultSnapshotOptions())
	snap := b.Snapshot(context.Background(), nil, asOf)
	assert.Equal(t, asOf, snap.CaptureDate)
	assert.Empty(t, snap.Entries)
}
