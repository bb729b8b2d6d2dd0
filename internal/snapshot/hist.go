package snapshot

import (
	"math"
	"time"

	"MarketSnapshot/internal/model"
	"MarketSnapshot/internal/series"
)

// HistMax is the default number of bars embedded per row.
const HistMax = 360

// HistPayload returns the last max bars of s as parallel t/c/v arrays.
// Daily series use bare dates, intraday ones RFC 3339 timestamps.
func HistPayload(s series.Series, interval string, max int) *model.History {
	if max <= 0 || s.Len() == 0 {
		return nil
	}
	tail := s.Tail(max)
	h := &model.History{
		T: make([]string, tail.Len()),
		C: make([]*float64, tail.Len()),
		V: make([]*float64, tail.Len()),
	}
	for i := 0; i < tail.Len(); i++ {
		ts := tail.Time[i].UTC()
		if interval == "1d" {
			h.T[i] = ts.Format(time.DateOnly)
		} else {
			h.T[i] = ts.Format(time.RFC3339)
		}
		h.C[i] = optional(tail.Close[i])
		h.V[i] = optional(tail.Volume[i])
	}
	return h
}

func optional(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return model.Float(v)
}
