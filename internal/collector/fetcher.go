package collector

import (
	"context"

	"MarketSnapshot/internal/fundamentals"
	"MarketSnapshot/internal/model"
	"MarketSnapshot/internal/series"
)

// Profile is the descriptive and valuation data for one symbol.
type Profile struct {
	Name    string
	Sector  string
	Sources fundamentals.Sources
}

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchHistory returns the raw price table for symbol over period at
	// interval, e.g. ("AAPL", "1d", "120d").
	FetchHistory(ctx context.Context, symbol, interval, period string) (series.Table, error)
	// Expirations lists option expiration dates as YYYY-MM-DD.
	Expirations(ctx context.Context, symbol string) ([]string, error)
	OptionChain(ctx context.Context, symbol, expiration string) (*model.OptionChain, error)
	Fundamentals(ctx context.Context, symbol string) (*Profile, error)
	Name() string
}
