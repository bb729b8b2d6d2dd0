package fundamentals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_PriorityOrder(t *testing.T) {
	s := Sources{
		Fast: map[string]any{"market_cap": 3e12, "beta": nil},
		Info: map[string]any{
			"marketCap":     1.0,
			"trailingPE":    "31.5",
			"priceToBook":   "n/a",
			"dividendYield": 0.44,
			"beta":          1.2,
		},
	}
	f := Resolve(s)
	require.NotNil(t, f.MarketCap)
	assert.Equal(t, 3e12, *f.MarketCap, "fast view wins")
	assert.Equal(t, 31.5, *f.PETTM)
	assert.Nil(t, f.PB, "non-numeric value is null, not skipped")
	assert.Equal(t, 0.44, *f.DivYield)
	assert.Equal(t, 1.2, *f.Beta, "null in fast view falls through")
}

func TestResolve_EmptySources(t *testing.T) {
	f := Resolve(Sources{})
	assert.Nil(t, f.MarketCap)
	assert.Nil(t, f.Beta)
}

func TestField_CustomOrder(t *testing.T) {
	field := Field{FromInfo("a"), FromFast("a")}
	got := field.Resolve(Sources{Fast: map[string]any{"a": 1}, Info: map[string]any{"a": 2}})
	assert.Equal(t, 2.0, *got)
}
