// Package fundamentals resolves valuation fields from loosely-typed sources.
package fundamentals

import (
	"math"

	"MarketSnapshot/internal/model"
	"MarketSnapshot/internal/series"
)

// Sources are the two attribute maps a data provider exposes: a fast,
// partial view and a slower complete one. Either may be nil.
type Sources struct {
	Fast map[string]any
	Info map[string]any
}

// Accessor looks one value up; ok is false when the key is absent or null.
type Accessor func(Sources) (any, bool)

// FromFast reads key from the fast view.
func FromFast(key string) Accessor {
	return func(s Sources) (any, bool) { return lookup(s.Fast, key) }
}

// FromInfo reads key from the full info view.
func FromInfo(key string) Accessor {
	return func(s Sources) (any, bool) { return lookup(s.Info, key) }
}

func lookup(m map[string]any, key string) (any, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Field is an ordered list of accessors; the first present value wins.
type Field []Accessor

// Resolve returns the first present value as a float, or nil when it is
// absent or not numeric.
func (f Field) Resolve(s Sources) *float64 {
	for _, acc := range f {
		v, ok := acc(s)
		if !ok {
			continue
		}
		x := series.ToFloat(v)
		if math.IsNaN(x) {
			return nil
		}
		return model.Float(x)
	}
	return nil
}

// Lookup order for each field: snake_case fast key, then camelCase info
// key, mirroring how each view names its attributes.
var (
	MarketCap = Field{FromFast("market_cap"), FromInfo("market_cap"), FromFast("marketCap"), FromInfo("marketCap")}
	PETTM     = Field{FromFast("trailing_pe"), FromInfo("trailing_pe"), FromFast("trailingPE"), FromInfo("trailingPE")}
	PB        = Field{FromFast("price_to_book"), FromInfo("price_to_book"), FromFast("priceToBook"), FromInfo("priceToBook")}
	DivYield  = Field{FromFast("dividend_yield"), FromInfo("dividend_yield"), FromFast("dividendYield"), FromInfo("dividendYield")}
	Beta      = Field{FromFast("beta"), FromInfo("beta")}
)

// Resolve fills every fundamentals field from s.
func Resolve(s Sources) model.Fundamentals {
	return model.Fundamentals{
		MarketCap: MarketCap.Resolve(s),
		PETTM:     PETTM.Resolve(s),
		PB:        PB.Resolve(s),
		DivYield:  DivYield.Resolve(s),
		Beta:      Beta.Resolve(s),
	}
}
