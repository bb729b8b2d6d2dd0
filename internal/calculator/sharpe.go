package calculator

import (
	"math"
	"slices"
	"strings"
)

// MinSharpeReturns is the smallest return sample a Sharpe ratio is reported for.
const MinSharpeReturns = 30

// Config carries the analytics parameters that vary per run.
type Config struct {
	Interval      string
	RiskFree      float64 // annual, decimal
	CryptoSymbols []string
}

// IsCrypto reports whether symbol trades around the clock.
func (c Config) IsCrypto(symbol string) bool {
	return slices.Contains(c.CryptoSymbols, symbol)
}

// PeriodsPerYear returns the annualization factor for the sampling interval.
func (c Config) PeriodsPerYear(symbol string) float64 {
	return PeriodsPerYear(c.Interval, c.IsCrypto(symbol))
}

// PeriodsPerYear maps an interval to sampling periods per year. Intraday
// equity factors assume 6.5 trading hours over 252 sessions; crypto
// factors assume 24/7 trading.
func PeriodsPerYear(interval string, crypto bool) float64 {
	pick := func(equity, allDay float64) float64 {
		if crypto {
			return allDay
		}
		return equity
	}
	switch strings.ToLower(interval) {
	case "1d":
		return pick(252, 365)
	case "1wk":
		return 52
	case "1mo":
		return 12
	case "3mo":
		return 4
	case "1h", "60m":
		return pick(252*6.5, 365*24)
	case "90m":
		return pick(252*4.33, 365*16)
	case "30m":
		return pick(252*13, 365*48)
	case "15m":
		return pick(252*26, 365*96)
	case "5m":
		return pick(252*78, 365*288)
	case "2m":
		return pick(252*195, 365*720)
	case "1m":
		return pick(252*390, 365*1440)
	default:
		return 252
	}
}

// SharpeRatio is the annualized excess-return Sharpe ratio of the simple
// period returns of closes, rounded to 3 decimals. Scaling by
// sqrt(periodsPerYear) treats period returns as i.i.d.; it is an
// approximation. ok is false with fewer than MinSharpeReturns returns or
// excess returns that do not vary.
func SharpeRatio(closes []float64, periodsPerYear, riskFreeAnnual float64) (float64, bool) {
	if periodsPerYear <= 0 {
		return 0, false
	}
	pts := finite(closes)
	excess := make([]float64, 0, len(pts))
	rfPer := riskFreeAnnual / periodsPerYear
	for i := 1; i < len(pts); i++ {
		if pts[i-1] == 0 {
			continue
		}
		r := pts[i]/pts[i-1] - 1
		if isFinite(r) {
			excess = append(excess, r-rfPer)
		}
	}
	if len(excess) < MinSharpeReturns {
		return 0, false
	}
	mu, sigma, ok := meanStdDev(excess)
	if !ok {
		return 0, false
	}
	return Round(mu/sigma*math.Sqrt(periodsPerYear), 3), true
}

// SharpeLookback computes SharpeRatio over the last lookback finite closes.
func SharpeLookback(closes []float64, lookback int, periodsPerYear, riskFreeAnnual float64) (float64, bool) {
	pts := finite(closes)
	if lookback < 2 || len(pts) < lookback {
		return 0, false
	}
	return SharpeRatio(pts[len(pts)-lookback:], periodsPerYear, riskFreeAnnual)
}
