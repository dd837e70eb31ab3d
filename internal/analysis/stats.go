package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

func sortedCopy(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}

// median of vals; ok is false for an empty slice.
func median(vals []float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	return quantile(sortedCopy(vals), 0.5), true
}

func mean(vals []float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	return stat.Mean(vals, nil), true
}

// meanStd returns the mean and sample standard deviation. The deviation is NaN
// for fewer than two values.
func meanStd(vals []float64) (m, sd float64) {
	if len(vals) < 2 {
		if len(vals) == 1 {
			return vals[0], math.NaN()
		}
		return math.NaN(), math.NaN()
	}
	return stat.MeanStdDev(vals, nil)
}

// quantile interpolates linearly between the order statistics of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
