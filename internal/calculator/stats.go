package calculator

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// degenerateRelTol bounds the deviation treated as rounding noise,
// relative to the magnitude of the mean.
const degenerateRelTol = 1e-12

// finite returns the finite values of xs, in order.
func finite(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// meanStdDev returns the mean and Bessel-corrected standard deviation of
// xs. ok is false for fewer than two samples and for samples with no
// variation: all equal, or a deviation within rounding noise of the mean.
func meanStdDev(xs []float64) (mu, sd float64, ok bool) {
	if len(xs) < 2 {
		return 0, 0, false
	}
	if low, high := valueRange(xs); low == high {
		return 0, 0, false
	}
	mu, sd = stat.MeanStdDev(xs, nil)
	if !isFinite(mu) || !isFinite(sd) || sd <= degenerateRelTol*math.Max(1, math.Abs(mu)) {
		return 0, 0, false
	}
	return mu, sd, true
}

// valueRange returns the min and max of a non-empty slice.
func valueRange(xs []float64) (low, high float64) {
	low, high = math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		if x > high {
			high = x
		}
		if x < low {
			low = x
		}
	}
	return low, high
}

// Round rounds x to dp decimal places, half away from zero.
func Round(x float64, dp int) float64 {
	p := math.Pow(10, float64(dp))
	return math.Round(x*p) / p
}
