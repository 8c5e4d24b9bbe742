package scoring

import (
	"math"

	"clinicpulse/internal/errors"
)

// FeatureWeights holds the per-feature weights, scaled to sum to
// weightScaleTotal.
type FeatureWeights struct {
	Revenue   float64
	Count     float64
	AvgTicket float64
}

// weightScaleTotal is the fixed sum the derived weights are rescaled to.
const weightScaleTotal = 10.0

// minWeightSample is the smallest population for which correlations are
// derived; below it the fixed fallback weights apply.
const minWeightSample = 3

// fallbackWeights favor lifetime revenue slightly over frequency and ticket
// size. Used whenever the population is too small or uncorrelated for
// derived weights.
func fallbackWeights() FeatureWeights {
	return FeatureWeights{Revenue: 4, Count: 3, AvgTicket: 3}
}

// Sum returns the total weight mass.
func (w FeatureWeights) Sum() float64 {
	return w.Revenue + w.Count + w.AvgTicket
}

// Apply computes the weighted sum of an already scaled feature vector.
func (w FeatureWeights) Apply(revenue, count, avgTicket float64) float64 {
	return w.Revenue*revenue + w.Count*count + w.AvgTicket*avgTicket
}

// pairwiseCorrelationWeights derives weights from the pairwise absolute
// Pearson correlations among the three features: each feature's weight is
// its mean absolute correlation with the other two, rescaled to sum to 10.
// A tiny or uncorrelated population returns the fixed fallback weights
// alongside an InsufficientSample error describing why.
func pairwiseCorrelationWeights(features []featureVector) (FeatureWeights, error) {
	if len(features) < minWeightSample {
		return fallbackWeights(), errors.NewInsufficientSampleError(
			"too few eligible rows for correlation-derived weights")
	}

	revenue, count, avgTicket := featureColumns(features)

	rc := math.Abs(pearson(revenue, count))
	ra := math.Abs(pearson(revenue, avgTicket))
	ca := math.Abs(pearson(count, avgTicket))

	w := FeatureWeights{
		Revenue:   (rc + ra) / 2,
		Count:     (rc + ca) / 2,
		AvgTicket: (ra + ca) / 2,
	}
	sum := w.Sum()
	if sum <= 1e-8 {
		return fallbackWeights(), errors.NewInsufficientSampleError(
			"features carry no correlation signal")
	}
	return FeatureWeights{
		Revenue:   w.Revenue * weightScaleTotal / sum,
		Count:     w.Count * weightScaleTotal / sum,
		AvgTicket: w.AvgTicket * weightScaleTotal / sum,
	}, nil
}

// revenueCorrelationWeights derives each feature's weight from its absolute
// correlation against lifetime revenue alone. Revenue's self-correlation is
// floored at 1, and the weights are normalized to sum to 10.
func revenueCorrelationWeights(features []featureVector) (FeatureWeights, error) {
	if len(features) < minWeightSample {
		return fallbackWeights(), errors.NewInsufficientSampleError(
			"too few eligible rows for correlation-derived weights")
	}

	revenue, count, avgTicket := featureColumns(features)

	w := FeatureWeights{
		Revenue:   1,
		Count:     math.Abs(pearson(count, revenue)),
		AvgTicket: math.Abs(pearson(avgTicket, revenue)),
	}
	sum := w.Sum()
	if sum <= 1e-8 {
		return fallbackWeights(), errors.NewInsufficientSampleError(
			"features carry no correlation signal")
	}
	return FeatureWeights{
		Revenue:   w.Revenue * weightScaleTotal / sum,
		Count:     w.Count * weightScaleTotal / sum,
		AvgTicket: w.AvgTicket * weightScaleTotal / sum,
	}, nil
}

// featureColumns transposes the feature vectors into per-feature series.
func featureColumns(features []featureVector) (revenue, count, avgTicket []float64) {
	revenue = make([]float64, len(features))
	count = make([]float64, len(features))
	avgTicket = make([]float64, len(features))
	for i, f := range features {
		revenue[i] = f.revenue
		count[i] = f.count
		avgTicket[i] = f.avgTicket
	}
	return revenue, count, avgTicket
}
