// Package kpi buckets ledger transactions by calendar month and computes
// volume, revenue, and patient mix rollups.
package kpi

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"clinicpulse/pkg/contracts/domain"
)

// yearMonthLayout formats a bucket key.
const yearMonthLayout = "2006-01"

// RollupOptions configures the KPI table.
type RollupOptions struct {
	// PurposeAsPercent reports the visit purpose distribution as percentages
	// of the bucket total instead of raw counts.
	PurposeAsPercent bool

	// IncludePurposes toggles the purpose distribution entirely.
	IncludePurposes bool
}

// DefaultRollupOptions includes the purpose distribution as percentages.
func DefaultRollupOptions() RollupOptions {
	return RollupOptions{PurposeAsPercent: true, IncludePurposes: true}
}

// Rollup computes per-month KPI rollups over a ledger.
type Rollup struct {
	logger *slog.Logger
	opts   RollupOptions
}

// NewRollup creates a KPI rollup.
func NewRollup(logger *slog.Logger, opts RollupOptions) *Rollup {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rollup{logger: logger, opts: opts}
}

// Build buckets ledger rows whose visit date falls inside the inclusive
// [start, end] month range. New-patient counts use the patient's first-ever
// transaction month over the entire ledger history, not just the requested
// range. An empty range yields an empty, well-formed table.
func (r *Rollup) Build(ctx context.Context, l domain.Ledger, start, end time.Time) []domain.KPIPeriodRecord {
	startKey := start.Format(yearMonthLayout)
	endKey := end.Format(yearMonthLayout)
	if startKey > endKey {
		r.logger.WarnContext(ctx, "kpi range is empty",
			slog.String("start", startKey),
			slog.String("end", endKey))
		return []domain.KPIPeriodRecord{}
	}

	// First-ever transaction month per patient, over the whole ledger.
	firstMonth := make(map[string]string)
	for _, rec := range l {
		if !rec.HasVisitDate() {
			continue
		}
		key := rec.VisitDate.Format(yearMonthLayout)
		if prev, ok := firstMonth[rec.PatientID]; !ok || key < prev {
			firstMonth[rec.PatientID] = key
		}
	}

	type bucket struct {
		visitCount int
		netRevenue float64
		patients   map[string]struct{}
		purposes   map[string]int
	}
	buckets := make(map[string]*bucket)

	for _, rec := range l {
		if !rec.HasVisitDate() {
			continue
		}
		key := rec.VisitDate.Format(yearMonthLayout)
		if key < startKey || key > endKey {
			continue
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{patients: make(map[string]struct{}), purposes: make(map[string]int)}
			buckets[key] = b
		}
		b.visitCount++
		b.netRevenue += rec.NetRevenue()
		b.patients[rec.PatientID] = struct{}{}
		if rec.VisitPurpose != "" {
			b.purposes[rec.VisitPurpose]++
		}
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	records := make([]domain.KPIPeriodRecord, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]

		var newPatients int
		for id := range b.patients {
			if firstMonth[id] == key {
				newPatients++
			}
		}

		record := domain.KPIPeriodRecord{
			YearMonth:         key,
			VisitCount:        b.visitCount,
			UniquePatients:    len(b.patients),
			NewPatients:       newPatients,
			ReturningPatients: len(b.patients) - newPatients,
			NetRevenue:        b.netRevenue,
		}
		if len(b.patients) > 0 {
			arpu := b.netRevenue / float64(len(b.patients))
			record.ARPU = &arpu
		}
		if r.opts.IncludePurposes {
			record.PurposeDistribution = r.purposeDistribution(b.purposes, b.visitCount)
		}

		records = append(records, record)
	}

	r.logger.InfoContext(ctx, "built kpi rollup",
		slog.String("start", startKey),
		slog.String("end", endKey),
		slog.Int("bucket_count", len(records)))

	return records
}

// purposeDistribution converts per-purpose counts into the configured
// representation.
func (r *Rollup) purposeDistribution(purposes map[string]int, visitCount int) map[string]float64 {
	if len(purposes) == 0 {
		return nil
	}
	dist := make(map[string]float64, len(purposes))
	for purpose, count := range purposes {
		if r.opts.PurposeAsPercent && visitCount > 0 {
			dist[purpose] = float64(count) / float64(visitCount) * 100
		} else {
			dist[purpose] = float64(count)
		}
	}
	return dist
}
