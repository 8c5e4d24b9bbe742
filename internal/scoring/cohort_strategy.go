package scoring

import (
	"context"
	"log/slog"
	"math"
	"time"

	"clinicpulse/pkg/contracts/domain"
)

// AbsoluteScoreCut is the cohort strategy's grade boundary on the 0..100
// scale.
const AbsoluteScoreCut = 65.0

// CohortStrategy scores patients within their cohort group. Features are
// min-max scaled per cohort, combined with correlation-derived weights,
// then robust-rescaled against the cohort's own 10th/90th percentile band.
// Grades carry the cohort label prefix: "{cohort}1" at or above the
// absolute cut, "{cohort}2" below it, "{cohort}3" for forced rows.
type CohortStrategy struct {
	logger   Logger
	resolver CohortResolver
}

// NewCohortStrategy creates the cohort robust-scale strategy.
func NewCohortStrategy(deps Deps) *CohortStrategy {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Resolver == nil {
		deps.Resolver = TrailingLetterResolver{}
	}
	return &CohortStrategy{logger: deps.Logger, resolver: deps.Resolver}
}

// Name implements Strategy.
func (s *CohortStrategy) Name() string { return StrategyCohort }

// Classify implements Strategy. Forced rows (stale or zero lifetime revenue)
// keep a nil score and never enter weighting or scaling.
func (s *CohortStrategy) Classify(ctx context.Context, summaries []domain.PatientSummary, asOf time.Time) ([]domain.PatientSummary, error) {
	out := make([]domain.PatientSummary, len(summaries))
	copy(out, summaries)

	forced := make([]bool, len(out))
	var forcedCount int
	for i := range out {
		label, name := s.resolver.Resolve(out[i])
		out[i].CohortLabel = label
		out[i].Name = name

		forced[i] = staleOrUnknown(out[i], asOf) || out[i].NetRevenueTotal == 0
		if forced[i] {
			forcedCount++
		}
	}

	eligible := make([]featureVector, 0, len(out))
	for i := range out {
		if !forced[i] {
			eligible = append(eligible, featuresOf(out[i]))
		}
	}
	weights, werr := pairwiseCorrelationWeights(eligible)
	derived := werr == nil
	if werr != nil && len(eligible) > 0 {
		s.logger.WarnContext(ctx, "falling back to fixed weights",
			slog.String("reason", werr.Error()),
			slog.Int("eligible_rows", len(eligible)))
	}

	byCohort := make(map[string][]int)
	for i := range out {
		if !forced[i] {
			byCohort[out[i].CohortLabel] = append(byCohort[out[i].CohortLabel], i)
		}
	}
	for _, indices := range byCohort {
		s.scoreCohort(out, indices, weights)
	}

	for i := range out {
		switch {
		case forced[i]:
			out[i].Score = nil
			out[i].Grade = out[i].CohortLabel + "3"
		case out[i].Score != nil && *out[i].Score >= AbsoluteScoreCut:
			out[i].Grade = out[i].CohortLabel + "1"
		default:
			out[i].Grade = out[i].CohortLabel + "2"
		}
	}

	s.logger.InfoContext(ctx, "classified patient summaries",
		slog.String("strategy", s.Name()),
		slog.Int("patient_count", len(out)),
		slog.Int("forced_count", forcedCount),
		slog.Bool("derived_weights", derived),
		slog.Float64("weight_revenue", weights.Revenue),
		slog.Float64("weight_count", weights.Count),
		slog.Float64("weight_avg_ticket", weights.AvgTicket))

	return out, nil
}

// scoreCohort computes the 0..100 integer score for one cohort's eligible
// rows: per-cohort min-max scaling, weighted combination, then a robust
// rescale against the cohort's own percentile band.
func (s *CohortStrategy) scoreCohort(out []domain.PatientSummary, indices []int, weights FeatureWeights) {
	if len(indices) == 0 {
		return
	}

	revenue := make([]float64, len(indices))
	count := make([]float64, len(indices))
	avgTicket := make([]float64, len(indices))
	for j, i := range indices {
		f := featuresOf(out[i])
		revenue[j] = f.revenue
		count[j] = f.count
		avgTicket[j] = f.avgTicket
	}
	revenue = minMaxScale(revenue)
	count = minMaxScale(count)
	avgTicket = minMaxScale(avgTicket)

	raw := make([]float64, len(indices))
	for j := range indices {
		raw[j] = weights.Apply(revenue[j], count[j], avgTicket[j]) / weights.Sum()
	}

	rescaled := robustRescale(raw)
	for j, i := range indices {
		score := math.Round(rescaled[j] * 100)
		out[i].Score = &score
	}
}
