package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketSnapshot/internal/model"
	"MarketSnapshot/internal/series"
)

// trendBars builds n daily bars whose close grows ~1% per bar, alternating
// between 1.1% and 0.9% so the return series has non-zero variance.
func trendBars(n int) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	price := 100.0
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		if i > 0 {
			step := 0.011
			if i%2 == 0 {
				step = 0.009
			}
			price *= 1 + step
		}
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   price,
			High:   price * 1.005,
			Low:    price * 0.995,
			Close:  price,
			Volume: 1e6 * (1 + 0.2*math.Sin(float64(i))),
		}
	}
	return bars
}

func TestCalculateRSI(t *testing.T) {
	// alpha 1/2: gains 0, 1, 0 -> 0.25; losses 0, 0, 1 -> 0.5.
	rsi, ok := CalculateRSI([]float64{1, 2, 1}, 2)
	require.True(t, ok)
	assert.InDelta(t, 100.0/3, rsi, 1e-9, "averages are seeded at zero, not with a simple mean")

	rising := []float64{1, 2, math.NaN(), 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14}
	rsi, ok = CalculateRSI(rising, 14)
	require.True(t, ok, "14 finite closes are enough")
	assert.Equal(t, 100.0, rsi)

	_, ok = CalculateRSI(rising[:13], 14)
	assert.False(t, ok)

	falling := []float64{20, 19, 18, 17, 16, 15, 14, 13, 12, 11, 10, 9, 8, 7, 6}
	rsi, ok = CalculateRSI(falling, 14)
	require.True(t, ok)
	assert.Equal(t, 0.0, rsi)

	_, ok = CalculateRSI(rising, 0)
	assert.False(t, ok)
}

func TestCalculateRSI_Bounded(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + 5*math.Sin(float64(i)/3) + float64(i%7)
	}
	rsi, ok := CalculateRSI(closes, 14)
	require.True(t, ok)
	assert.Greater(t, rsi, 0.0)
	assert.Less(t, rsi, 100.0)
}

func TestPctChange(t *testing.T) {
	closes := []float64{100, 101, 102, 103, 104, 110}
	r, ok := PctChange(closes, 1)
	require.True(t, ok)
	assert.InDelta(t, 110.0/104-1, r, 1e-12)

	r, ok = PctChange(closes, 5)
	require.True(t, ok)
	assert.InDelta(t, 0.1, r, 1e-12)

	_, ok = PctChange(closes, 6)
	assert.False(t, ok)

	_, ok = PctChange([]float64{math.NaN(), 1}, 1)
	assert.False(t, ok)
}

func TestVolumeZScore(t *testing.T) {
	vols := make([]float64, 60)
	for i := range vols {
		vols[i] = math.Exp(float64(i) * 0.1)
	}
	z, ok := VolumeZScore(vols, 60)
	require.True(t, ok)
	assert.InDelta(t, 29.5/math.Sqrt(305), z, 1e-9)

	_, ok = VolumeZScore(vols[:59], 60)
	assert.False(t, ok, "fewer than 60 samples")

	flat := make([]float64, 60)
	for i := range flat {
		flat[i] = 500
	}
	_, ok = VolumeZScore(flat, 60)
	assert.False(t, ok, "zero deviation")

	withZero := append([]float64(nil), vols...)
	withZero[30] = 0
	_, ok = VolumeZScore(withZero, 60)
	assert.False(t, ok, "zero volume is undefined in the window")
}

func TestSparkline(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	sp := Sparkline(closes, 30)
	require.Len(t, sp, 30)
	assert.Equal(t, 0.0, sp[0])
	assert.Equal(t, 1.0, sp[29])
	for _, v := range sp {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}

	assert.Nil(t, Sparkline([]float64{5, 5, 5}, 30))
	assert.Nil(t, Sparkline([]float64{5, math.NaN()}, 30))
}

func TestPeriodsPerYear(t *testing.T) {
	tests := []struct {
		interval string
		crypto   bool
		want     float64
	}{
		{"1d", false, 252},
		{"1d", true, 365},
		{"1wk", true, 52},
		{"1mo", false, 12},
		{"3mo", false, 4},
		{"60m", false, 252 * 6.5},
		{"1h", true, 365 * 24},
		{"90m", false, 252 * 4.33},
		{"30m", true, 365 * 48},
		{"15m", false, 252 * 26},
		{"5m", false, 252 * 78},
		{"2m", true, 365 * 720},
		{"1m", false, 252 * 390},
		{"5d", false, 252},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PeriodsPerYear(tt.interval, tt.crypto), "%s crypto=%v", tt.interval, tt.crypto)
	}

	cfg := Config{Interval: "1d", CryptoSymbols: []string{"BTC-USD"}}
	assert.Equal(t, 365.0, cfg.PeriodsPerYear("BTC-USD"))
	assert.Equal(t, 252.0, cfg.PeriodsPerYear("AAPL"))
}

func TestSharpeRatio(t *testing.T) {
	flat := make([]float64, 40)
	for i := range flat {
		flat[i] = 100
	}
	_, ok := SharpeRatio(flat, 252, 0)
	assert.False(t, ok, "zero-variance excess returns")

	closes := make([]float64, 0, 31)
	for _, b := range trendBars(31) {
		closes = append(closes, b.Close)
	}
	_, ok = SharpeRatio(closes[:30], 252, 0)
	assert.False(t, ok, "29 returns")

	sh, ok := SharpeRatio(closes, 252, 0)
	require.True(t, ok)
	assert.Greater(t, sh, 0.0)

	// A risk-free rate above the realized return flips the sign.
	sh, ok = SharpeRatio(closes, 252, 10)
	require.True(t, ok)
	assert.Less(t, sh, 0.0)

	_, ok = SharpeLookback(closes, 20, 252, 0)
	assert.False(t, ok, "lookback shorter than minimum sample")
	_, ok = SharpeLookback(closes, 31, 252, 0)
	assert.True(t, ok)
}

func TestSharpeRatio_ConstantReturnIsUndefined(t *testing.T) {
	for _, step := range []float64{0.995, 0.999, 1.001, 1.005, 1.01, 1.02} {
		closes := make([]float64, 60)
		closes[0] = 100
		for i := 1; i < len(closes); i++ {
			closes[i] = closes[i-1] * step
		}
		sh, ok := SharpeRatio(closes, 252, 0)
		assert.False(t, ok, "step %.3f gave %v", step, sh)
		_, ok = SharpeRatio(closes, 252, 0.03)
		assert.False(t, ok, "step %.3f with risk-free", step)
	}
}

func TestVolumeZScore_FlatWindowIsUndefined(t *testing.T) {
	for _, v := range []float64{1, 500, 1e6, 123456.789} {
		vols := make([]float64, 60)
		for i := range vols {
			vols[i] = v
		}
		z, ok := VolumeZScore(vols, 60)
		assert.False(t, ok, "volume %v gave %v", v, z)
	}
}

func TestMeanStdDev(t *testing.T) {
	mu, sd, ok := meanStdDev([]float64{1, 2, 3, 4})
	require.True(t, ok)
	assert.InDelta(t, 2.5, mu, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3), sd, 1e-12)

	_, _, ok = meanStdDev([]float64{7})
	assert.False(t, ok)
	_, _, ok = meanStdDev([]float64{0.1 + 0.2, 0.3, 0.3})
	assert.False(t, ok, "differences at rounding scale")
}

func TestComputeMetrics_InsufficientHistory(t *testing.T) {
	s := series.Normalize(series.TableFromBars(trendBars(59)))
	rec, err := ComputeMetrics(s, "AAPL", Config{Interval: "1d"})
	assert.ErrorIs(t, err, ErrInsufficientHistory)
	assert.Nil(t, rec)
}

func TestComputeMetrics_Uptrend(t *testing.T) {
	s := series.Normalize(series.TableFromBars(trendBars(90)))
	rec, err := ComputeMetrics(s, "AAPL", Config{Interval: "1d", RiskFree: 0})
	require.NoError(t, err)

	require.NotNil(t, rec.Price)
	require.NotNil(t, rec.Ret1)
	assert.InDelta(t, 0.01, *rec.Ret1, 0.0011)
	require.NotNil(t, rec.Ret5)
	assert.InDelta(t, math.Pow(1.01, 5)-1, *rec.Ret5, 0.002)

	require.NotNil(t, rec.RSI14)
	assert.Equal(t, 100.0, *rec.RSI14)

	require.NotNil(t, rec.Sharpe)
	assert.False(t, math.IsInf(*rec.Sharpe, 0))
	assert.Greater(t, *rec.Sharpe, 0.0)

	require.NotNil(t, rec.VolZ)
	require.Len(t, rec.Spark30, 30)
	assert.Equal(t, 1.0, rec.Spark30[29])
}

func TestComputeMetrics_MissingVolume(t *testing.T) {
	bars := trendBars(90)
	tbl := series.TableFromBars(bars)
	for i := range tbl.Columns {
		if tbl.Columns[i].Name == "Volume" {
			for j := 0; j < 40; j++ {
				tbl.Columns[i].Cells[j] = nil
			}
		}
	}
	rec, err := ComputeMetrics(series.Normalize(tbl), "AAPL", Config{Interval: "1d"})
	require.NoError(t, err)
	assert.Nil(t, rec.VolZ, "only 50 volume samples")
	assert.NotNil(t, rec.RSI14)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.2346, Round(1.23456, 4))
	assert.Equal(t, -0.01, Round(-0.00999, 3))
}
