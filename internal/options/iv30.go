package options

import (
	"context"
	"math"
	"slices"
	"time"

	"MarketSnapshot/internal/logger"
	"MarketSnapshot/internal/model"
)

// ChainSource supplies option expirations and chains for a symbol.
type ChainSource interface {
	Expirations(ctx context.Context, symbol string) ([]string, error)
	OptionChain(ctx context.Context, symbol, expiration string) (*model.OptionChain, error)
}

// Config controls which symbols get options math and the pricing rates.
type Config struct {
	// VolIndexSymbols quote volatility directly, in percentage points.
	VolIndexSymbols []string
	// NonOptionSymbols never have a listed chain.
	NonOptionSymbols []string
	RiskFree         float64
	Dividend         float64
}

// Extractor derives an at-the-money, ~30 day implied volatility.
type Extractor struct {
	cfg    Config
	source ChainSource
	solver Solver
	now    func() time.Time
	log    *logger.Entry
}

// NewExtractor creates an Extractor reading chains from source.
func NewExtractor(source ChainSource, cfg Config) *Extractor {
	return &Extractor{
		cfg:    cfg,
		source: source,
		solver: DefaultSolver,
		now:    time.Now,
		log:    logger.GetLogger().WithComponent("iv30"),
	}
}

// WithClock overrides the clock used to measure days to expiry.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// IV30 returns the symbol's IV30 as a decimal volatility. Every failure,
// from missing chains to unusable quotes, yields ok=false; nothing is
// returned as an error because options data is routinely incomplete.
func (e *Extractor) IV30(ctx context.Context, symbol string, spot float64) (float64, bool) {
	if slices.Contains(e.cfg.NonOptionSymbols, symbol) {
		return 0, false
	}
	if slices.Contains(e.cfg.VolIndexSymbols, symbol) {
		if !usable(spot) {
			return 0, false
		}
		return validIV(math.Max(spot, 0) / 100)
	}
	if e.source == nil {
		return 0, false
	}

	expiries, err := e.source.Expirations(ctx, symbol)
	if err != nil {
		e.log.WithError(err).WithFields(logger.Fields{"symbol": symbol}).Debug("expirations unavailable")
		return 0, false
	}
	exp, dte, ok := ChooseExpiration(expiries, e.now())
	if !ok {
		return 0, false
	}
	chain, err := e.source.OptionChain(ctx, symbol, exp)
	if err != nil || chain == nil {
		e.log.WithError(err).WithFields(logger.Fields{"symbol": symbol, "expiration": exp}).Debug("option chain unavailable")
		return 0, false
	}
	return e.FromChain(chain, spot, dte)
}

// FromChain computes IV30 from one expiration's chain: the ATM call and
// put each contribute a quoted or backed-out volatility, and the result
// is their mean.
func (e *Extractor) FromChain(chain *model.OptionChain, spot float64, dte int) (float64, bool) {
	T := float64(max(dte, 1)) / 365.0
	var ivs []float64
	for _, side := range []struct {
		kind   model.OptionKind
		quotes []model.OptionQuote
	}{
		{model.Call, chain.Calls},
		{model.Put, chain.Puts},
	} {
		q, ok := NearestStrike(side.quotes, spot)
		if !ok {
			continue
		}
		if iv, ok := QuotedIV(q); ok {
			ivs = append(ivs, iv)
			continue
		}
		mid, ok := MidPrice(q)
		if !ok {
			continue
		}
		iv, ok := e.solver.ImpliedVol(side.kind, mid, spot, q.Strike, T, e.cfg.RiskFree, e.cfg.Dividend)
		if ok && iv > 0 {
			ivs = append(ivs, iv)
		}
	}
	if len(ivs) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range ivs {
		sum += v
	}
	return validIV(sum / float64(len(ivs)))
}

func validIV(v float64) (float64, bool) {
	if !usable(v) || v <= 0 || v >= MaxQuotedIV {
		return 0, false
	}
	return v, true
}
