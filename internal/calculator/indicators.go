package calculator

import (
	"errors"

	"MarketSnapshot/internal/model"
	"MarketSnapshot/internal/series"
)

const (
	// MinHistory is the shortest normalized series the indicator engine accepts.
	MinHistory = 60

	RSIPeriod    = 14
	VolumeWindow = 60
	SparkPoints  = 30
)

// ErrInsufficientHistory is returned when a series is shorter than MinHistory.
var ErrInsufficientHistory = errors.New("not enough history for indicators")

// ComputeMetrics derives the metric record for one symbol from its
// normalized series. Individual fields are nil when their own minimum
// history is not met.
func ComputeMetrics(s series.Series, symbol string, cfg Config) (*model.MetricRecord, error) {
	if s.Len() < MinHistory {
		return nil, ErrInsufficientHistory
	}
	rec := &model.MetricRecord{}

	if last := s.Close[s.Len()-1]; isFinite(last) {
		rec.Price = model.Float(Round(last, 4))
	}
	if r, ok := PctChange(s.Close, 1); ok {
		rec.Ret1 = model.Float(Round(r, 5))
	}
	if r, ok := PctChange(s.Close, 5); ok {
		rec.Ret5 = model.Float(Round(r, 5))
	}
	if rsi, ok := CalculateRSI(s.Close, RSIPeriod); ok {
		rec.RSI14 = model.Float(Round(rsi, 2))
	}
	if z, ok := VolumeZScore(s.Volume, VolumeWindow); ok {
		rec.VolZ = model.Float(Round(z, 2))
	}
	if sh, ok := SharpeRatio(s.Close, cfg.PeriodsPerYear(symbol), cfg.RiskFree); ok {
		rec.Sharpe = model.Float(sh)
	}
	rec.Spark30 = Sparkline(s.Close, SparkPoints)
	return rec, nil
}
