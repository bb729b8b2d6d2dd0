package options

import (
	"math"
	"sort"

	"MarketSnapshot/internal/model"
)

// MaxQuotedIV bounds a usable volatility, exclusive.
const MaxQuotedIV = 5.0

// NearestStrike returns the quote whose strike is closest to spot. Ties
// keep the earlier quote. Quotes with a non-finite strike are ignored.
func NearestStrike(quotes []model.OptionQuote, spot float64) (model.OptionQuote, bool) {
	type cand struct {
		q    model.OptionQuote
		dist float64
	}
	cands := make([]cand, 0, len(quotes))
	for _, q := range quotes {
		d := math.Abs(q.Strike - spot)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			continue
		}
		cands = append(cands, cand{q: q, dist: d})
	}
	if len(cands) == 0 {
		return model.OptionQuote{}, false
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	return cands[0].q, true
}

// MidPrice is the bid/ask midpoint when ask >= bid > 0, else a positive
// last trade price. ok is false when neither is usable.
func MidPrice(q model.OptionQuote) (float64, bool) {
	if usable(q.Bid) && usable(q.Ask) && q.Ask >= q.Bid && q.Bid > 0 {
		return 0.5 * (q.Ask + q.Bid), true
	}
	if usable(q.LastPrice) && q.LastPrice > 0 {
		return q.LastPrice, true
	}
	return 0, false
}

// QuotedIV returns the quote's own implied volatility if it lies in (0, MaxQuotedIV).
func QuotedIV(q model.OptionQuote) (float64, bool) {
	if q.ImpliedVolatility == nil {
		return 0, false
	}
	iv := *q.ImpliedVolatility
	if !usable(iv) || iv <= 0 || iv >= MaxQuotedIV {
		return 0, false
	}
	return iv, true
}

func usable(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
