package ivhistory

import (
	"math"

	"MarketSnapshot/internal/calculator"
	"MarketSnapshot/internal/model"
)

// MaxIV bounds a usable IV30, exclusive.
const MaxIV = 5.0

// RankPercentile ranks current against window. Rank is the position in
// the window's min-max range (nil when the window has no variation);
// percentile is the share of window values at or below current (nil only
// for an empty window). Both are percentages rounded to 2 decimals.
func RankPercentile(window []float64, current float64) (rank, percentile *float64) {
	if math.IsNaN(current) || math.IsInf(current, 0) {
		return nil, nil
	}
	vals := make([]float64, 0, len(window))
	for _, v := range window {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return nil, nil
	}
	lo, hi := vals[0], vals[0]
	below := 0
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		if v <= current {
			below++
		}
	}
	if hi > lo {
		rank = model.Float(calculator.Round(100*(current-lo)/(hi-lo), 2))
	}
	percentile = model.Float(calculator.Round(100*float64(below)/float64(len(vals)), 2))
	return rank, percentile
}

// RankPercentileTrailing ranks current against only the last win values.
func RankPercentileTrailing(window []float64, current float64, win int) (rank, percentile *float64) {
	if win > 0 && len(window) > win {
		window = window[len(window)-win:]
	}
	return RankPercentile(window, current)
}

// Update records iv30 for symbol and reports its rank and percentile.
// The observation (rounded to 6 decimals) is appended before ranking, so
// the reported figures treat it as part of its own history. Values
// outside (0, MaxIV) are unusable and leave the store untouched.
func Update(store Store, symbol string, iv30 float64) model.IVResult {
	if math.IsNaN(iv30) || math.IsInf(iv30, 0) || iv30 <= 0 || iv30 >= MaxIV {
		return model.IVResult{}
	}
	window := store.Append(symbol, calculator.Round(iv30, 6))
	rank, pct := RankPercentile(window, iv30)
	return model.IVResult{IV30: model.Float(iv30), IVRank: rank, IVPercentile: pct}
}
