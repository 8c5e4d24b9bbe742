package scoring

import (
	"math"
	"sort"
)

// pearson computes the Pearson correlation coefficient between two equal
// length series. Returns 0 when either series is constant or too short for
// a meaningful coefficient.
func pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n != len(ys) || n < 2 {
		return 0
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	r := cov / math.Sqrt(varX*varY)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// percentileValue returns the value at the given percentile (0..1) of a
// sorted series, linearly interpolating between adjacent observations.
func percentileValue(sorted []float64, percentile float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if percentile <= 0 {
		return sorted[0]
	}
	if percentile >= 1 {
		return sorted[n-1]
	}

	index := percentile * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// quantile sorts a copy of the series and returns the interpolated value at
// the given percentile.
func quantile(values []float64, percentile float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return percentileValue(sorted, percentile)
}

// minMaxScale maps a series onto [0,1]. A constant series maps every value
// to 0.5 so it contributes a neutral signal instead of collapsing to zero.
func minMaxScale(values []float64) []float64 {
	scaled := make([]float64, len(values))
	if len(values) == 0 {
		return scaled
	}

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == min {
		for i := range scaled {
			scaled[i] = 0.5
		}
		return scaled
	}
	for i, v := range values {
		scaled[i] = (v - min) / (max - min)
	}
	return scaled
}

// robustRescale clips a series to its own 10th and 90th percentile range and
// maps it linearly onto [0,1]. When the percentile band is degenerate every
// value maps to 0.5.
func robustRescale(values []float64) []float64 {
	scaled := make([]float64, len(values))
	if len(values) == 0 {
		return scaled
	}

	p10 := quantile(values, 0.10)
	p90 := quantile(values, 0.90)
	if p90 <= p10 {
		for i := range scaled {
			scaled[i] = 0.5
		}
		return scaled
	}
	for i, v := range values {
		r := (v - p10) / (p90 - p10)
		scaled[i] = clamp01(r)
	}
	return scaled
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
