package scoring

import (
	"context"
	"log/slog"
	"math"
	"time"

	"clinicpulse/pkg/contracts/domain"
)

// minTertileSample is the smallest non-forced population the quantile
// strategy will tertile-split; below it everyone non-forced lands in the
// middle tier.
const minTertileSample = 5

// QuantileStrategy scores the whole population at once. Features are scaled
// against their own 90th percentile, combined with revenue-correlation
// weights, and normalized by the maximum observed weighted sum. Grades are a
// tertile split: "1" for the top third, "3" for the bottom third and every
// forced row, "2" in between.
type QuantileStrategy struct {
	logger Logger
}

// NewQuantileStrategy creates the population quantile strategy.
func NewQuantileStrategy(deps Deps) *QuantileStrategy {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &QuantileStrategy{logger: deps.Logger}
}

// Name implements Strategy.
func (s *QuantileStrategy) Name() string { return StrategyQuantile }

// Classify implements Strategy. No cohort derivation happens here; labels
// already on the input pass through untouched.
func (s *QuantileStrategy) Classify(ctx context.Context, summaries []domain.PatientSummary, asOf time.Time) ([]domain.PatientSummary, error) {
	out := make([]domain.PatientSummary, len(summaries))
	copy(out, summaries)

	forced := make([]bool, len(out))
	eligible := make([]int, 0, len(out))
	for i := range out {
		forced[i] = staleOrUnknown(out[i], asOf) || out[i].NetRevenueTotal <= 0
		if forced[i] {
			out[i].Score = nil
			out[i].Grade = "3"
		} else {
			eligible = append(eligible, i)
		}
	}

	features := make([]featureVector, len(eligible))
	for j, i := range eligible {
		features[j] = featuresOf(out[i])
	}
	weights, werr := revenueCorrelationWeights(features)
	derived := werr == nil
	if werr != nil && len(features) > 0 {
		s.logger.WarnContext(ctx, "falling back to fixed weights",
			slog.String("reason", werr.Error()),
			slog.Int("eligible_rows", len(features)))
	}

	scores := s.scorePopulation(features, weights)
	for j, i := range eligible {
		score := scores[j]
		out[i].Score = &score
	}

	s.gradeTertiles(ctx, out, eligible, scores)

	s.logger.InfoContext(ctx, "classified patient summaries",
		slog.String("strategy", s.Name()),
		slog.Int("patient_count", len(out)),
		slog.Int("forced_count", len(out)-len(eligible)),
		slog.Bool("derived_weights", derived),
		slog.Float64("weight_revenue", weights.Revenue),
		slog.Float64("weight_count", weights.Count),
		slog.Float64("weight_avg_ticket", weights.AvgTicket))

	return out, nil
}

// scorePopulation computes the 0..100 one-decimal scores for the eligible
// rows. Each feature divides by its own population 90th percentile, clipped
// to [0,1]; the weighted sum then normalizes by the maximum observed sum.
func (s *QuantileStrategy) scorePopulation(features []featureVector, weights FeatureWeights) []float64 {
	scores := make([]float64, len(features))
	if len(features) == 0 {
		return scores
	}

	revenue, count, avgTicket := featureColumns(features)
	p90Revenue := quantile(revenue, 0.90)
	p90Count := quantile(count, 0.90)
	p90AvgTicket := quantile(avgTicket, 0.90)

	weighted := make([]float64, len(features))
	var maxWeighted float64
	for i, f := range features {
		weighted[i] = weights.Apply(
			scaleByP90(f.revenue, p90Revenue),
			scaleByP90(f.count, p90Count),
			scaleByP90(f.avgTicket, p90AvgTicket),
		)
		if weighted[i] > maxWeighted {
			maxWeighted = weighted[i]
		}
	}
	if maxWeighted <= 0 {
		return scores
	}

	for i, w := range weighted {
		scores[i] = math.Round(w/maxWeighted*1000) / 10
	}
	return scores
}

// gradeTertiles splits the eligible rows into thirds by score. Small
// populations skip the split and default to the middle tier.
func (s *QuantileStrategy) gradeTertiles(ctx context.Context, out []domain.PatientSummary, eligible []int, scores []float64) {
	if len(eligible) < minTertileSample {
		for _, i := range eligible {
			out[i].Grade = "2"
		}
		if len(eligible) > 0 {
			s.logger.WarnContext(ctx, "insufficient sample for tertile split, defaulting to middle tier",
				slog.Int("eligible_rows", len(eligible)))
		}
		return
	}

	lower := quantile(scores, 1.0/3.0)
	upper := quantile(scores, 2.0/3.0)
	for j, i := range eligible {
		switch {
		case scores[j] >= upper:
			out[i].Grade = "1"
		case scores[j] <= lower:
			out[i].Grade = "3"
		default:
			out[i].Grade = "2"
		}
	}
}

// scaleByP90 divides a value by the population 90th percentile and clips to
// [0,1]. A non-positive percentile yields zero.
func scaleByP90(v, p90 float64) float64 {
	if p90 <= 0 {
		return 0
	}
	return clamp01(v / p90)
}
