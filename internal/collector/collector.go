package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	"MarketSnapshot/internal/model"
	"MarketSnapshot/internal/series"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols without explicit bars get a generated series around Price.
type MockFetcher struct {
	Price    float64
	Bars     map[string][]model.OHLCV
	Tables   map[string]series.Table
	Expiries map[string][]string
	Chains   map[string]*model.OptionChain
	Profiles map[string]*Profile
	Errors   map[string]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(_ context.Context, symbol, _, _ string) (series.Table, error) {
	if err := m.Errors[symbol]; err != nil {
		return series.Table{}, err
	}
	if t, ok := m.Tables[symbol]; ok {
		return t, nil
	}
	if bars, ok := m.Bars[symbol]; ok {
		return series.TableFromBars(bars), nil
	}
	return series.TableFromBars(GenerateMockBars(m.Price, 120)), nil
}

func (m *MockFetcher) Expirations(_ context.Context, symbol string) ([]string, error) {
	if err := m.Errors[symbol]; err != nil {
		return nil, err
	}
	return m.Expiries[symbol], nil
}

func (m *MockFetcher) OptionChain(_ context.Context, symbol, expiration string) (*model.OptionChain, error) {
	c, ok := m.Chains[symbol]
	if !ok {
		return nil, fmt.Errorf("mock: no chain for %s", symbol)
	}
	out := *c
	out.Expiration = expiration
	return &out, nil
}

func (m *MockFetcher) Fundamentals(_ context.Context, symbol string) (*Profile, error) {
	if p, ok := m.Profiles[symbol]; ok {
		return p, nil
	}
	return &Profile{Name: symbol}, nil
}

// GenerateMockBars builds count daily bars ending yesterday. Closes drift
// upward with a small oscillation so returns have non-zero variance.
func GenerateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	end := time.Now().UTC().Truncate(24 * time.Hour)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001 + 0.01*math.Sin(float64(i)))
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000 * (1 + 0.3*math.Cos(float64(i))),
		}
	}
	return bars
}

// Collector fetches raw history and hands it to the normalizer.
type Collector struct {
	Fetcher  Fetcher
	Interval string
	Period   string
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, interval, period string) *Collector {
	return &Collector{Fetcher: fetcher, Interval: interval, Period: period}
}

// Collect returns the normalized price series for symbol.
func (c *Collector) Collect(ctx context.Context, symbol string) (series.Series, error) {
	tbl, err := c.Fetcher.FetchHistory(ctx, symbol, c.Interval, c.Period)
	if err != nil {
		return series.Series{}, fmt.Errorf("fetch history %s: %w", symbol, err)
	}
	s := series.Normalize(tbl)
	if s.Len() == 0 {
		return series.Series{}, fmt.Errorf("fetch history %s: no usable rows", symbol)
	}
	return s, nil
}
