package options

import (
	"math"

	"MarketSnapshot/internal/model"
)

// Solver inverts an option price into a volatility by bisection.
type Solver struct {
	Low       float64
	High      float64
	MaxIter   int
	Tolerance float64
}

// DefaultSolver brackets sigma in [1e-4, 5] with 60 halvings.
var DefaultSolver = Solver{Low: 1e-4, High: 5.0, MaxIter: 60, Tolerance: 1e-6}

// ImpliedVol returns the volatility whose model price matches price. It
// relies on price being increasing in sigma across the bracket. When the
// iteration budget runs out the last midpoint is returned as a
// best-effort estimate. ok is false only if the pricer is undefined for
// the inputs.
func (s Solver) ImpliedVol(kind model.OptionKind, price, S, K, T, r, q float64) (float64, bool) {
	lo, hi := s.Low, s.High
	mid := 0.5 * (lo + hi)
	for i := 0; i < s.MaxIter; i++ {
		mid = 0.5 * (lo + hi)
		p, ok := Price(kind, S, K, T, r, q, mid)
		if !ok {
			return 0, false
		}
		if math.Abs(p-price) < s.Tolerance {
			return mid, true
		}
		if p > price {
			hi = mid
		} else {
			lo = mid
		}
	}
	return mid, true
}

// ImpliedVol solves with DefaultSolver.
func ImpliedVol(kind model.OptionKind, price, S, K, T, r, q float64) (float64, bool) {
	return DefaultSolver.ImpliedVol(kind, price, S, K, T, r, q)
}
