package ledger

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"clinicpulse/pkg/contracts/domain"
)

// SummarizeOptions configures per-patient aggregation.
type SummarizeOptions struct {
	// ReservationFees are deposit amounts that are skipped when picking the
	// first purchase amount, provided a later positive amount exists.
	ReservationFees []float64
}

// DefaultSummarizeOptions returns the clinic's standard reservation deposits.
func DefaultSummarizeOptions() SummarizeOptions {
	return SummarizeOptions{ReservationFees: []float64{100_000, 350_000}}
}

// Summarizer recomputes the per-patient lifetime aggregates from the ledger.
// Summaries are stateless: every run rebuilds the full table, nothing is
// incrementally mutated.
type Summarizer struct {
	logger *slog.Logger
	opts   SummarizeOptions
}

// NewSummarizer creates a patient summarizer.
func NewSummarizer(logger *slog.Logger, opts SummarizeOptions) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{logger: logger, opts: opts}
}

// Summarize computes one PatientSummary per patient in the ledger as of the
// given date. Output is sorted by patient ID for deterministic artifacts.
func (s *Summarizer) Summarize(ctx context.Context, l domain.Ledger, asOf time.Time) []domain.PatientSummary {
	byPatient := make(map[string][]domain.TransactionRecord)
	order := make([]string, 0)
	for _, rec := range l {
		if _, ok := byPatient[rec.PatientID]; !ok {
			order = append(order, rec.PatientID)
		}
		byPatient[rec.PatientID] = append(byPatient[rec.PatientID], rec)
	}
	sort.Strings(order)

	summaries := make([]domain.PatientSummary, 0, len(order))
	for _, id := range order {
		summaries = append(summaries, s.summarizePatient(id, byPatient[id], asOf))
	}

	s.logger.InfoContext(ctx, "built patient summary table",
		slog.Int("ledger_rows", len(l)),
		slog.Int("patient_count", len(summaries)),
		slog.String("as_of", asOf.Format("2006-01-02")))

	return summaries
}

// summarizePatient aggregates one patient's visit history.
func (s *Summarizer) summarizePatient(id string, visits []domain.TransactionRecord, asOf time.Time) domain.PatientSummary {
	// Chronological order with undated rows after every dated one, so
	// first-purchase fields come from the dated history when it exists.
	sorted := make([]domain.TransactionRecord, len(visits))
	copy(sorted, visits)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].HasVisitDate() != sorted[j].HasVisitDate() {
			return sorted[i].HasVisitDate()
		}
		return sorted[i].VisitDate.Before(sorted[j].VisitDate)
	})

	summary := domain.PatientSummary{
		PatientID:     id,
		PurchaseCount: len(sorted),
	}

	var total float64
	var lastVisit *time.Time
	var firstPurchase *time.Time
	for _, v := range sorted {
		total += v.NetRevenue()
		if v.HasVisitDate() {
			d := v.VisitDate
			if lastVisit == nil || d.After(*lastVisit) {
				last := d
				lastVisit = &last
			}
			if v.GrossRevenue > 0 && firstPurchase == nil {
				first := d
				firstPurchase = &first
			}
		}
	}
	summary.NetRevenueTotal = total
	summary.LastVisitDate = lastVisit
	summary.FirstPurchaseDate = firstPurchase
	if summary.PurchaseCount > 0 {
		summary.AvgTicket = total / float64(summary.PurchaseCount)
	}
	summary.FirstPurchaseAmount = s.firstPurchaseAmount(sorted)
	summary.RevenueTier = domain.TierForRevenue(total)
	summary.LifecycleStatus = lifecycleStatus(summary, asOf)

	// Latest name and tag come from the most recent dated row; contact is
	// the most recent non-empty value, since many rows omit it.
	for i := len(sorted) - 1; i >= 0; i-- {
		if summary.Name == "" && sorted[i].PatientName != "" {
			summary.Name = sorted[i].PatientName
		}
		if summary.PatientTag == "" && sorted[i].PatientTag != "" {
			summary.PatientTag = sorted[i].PatientTag
		}
		if summary.Contact == "" && sorted[i].Contact != "" {
			summary.Contact = sorted[i].Contact
		}
		if summary.Name != "" && summary.PatientTag != "" && summary.Contact != "" {
			break
		}
	}

	return summary
}

// firstPurchaseAmount returns the first positive gross amount in visit
// order, skipping a recognized reservation deposit when a later positive
// amount exists.
func (s *Summarizer) firstPurchaseAmount(sorted []domain.TransactionRecord) float64 {
	positives := make([]float64, 0, len(sorted))
	for _, v := range sorted {
		if v.GrossRevenue > 0 {
			positives = append(positives, v.GrossRevenue)
		}
	}
	if len(positives) == 0 {
		return 0
	}
	if len(positives) > 1 && s.isReservationFee(positives[0]) {
		return positives[1]
	}
	return positives[0]
}

func (s *Summarizer) isReservationFee(amount float64) bool {
	for _, fee := range s.opts.ReservationFees {
		if amount == fee {
			return true
		}
	}
	return false
}

// lifecycleStatus classifies the purchase lifecycle as of a date.
func lifecycleStatus(p domain.PatientSummary, asOf time.Time) domain.LifecycleStatus {
	days, ok := p.DaysSinceLastVisit(asOf)
	if !ok || days > domain.LapsedAfterDays {
		return domain.StatusLapsed
	}
	if p.AvgTicket < p.FirstPurchaseAmount*domain.PartialPurchaseRatio {
		return domain.StatusPartial
	}
	return domain.StatusFull
}
