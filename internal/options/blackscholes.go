// Package options prices European options and backs out implied volatility.
package options

import (
	"math"

	"MarketSnapshot/internal/model"
)

// normCDF is the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// Price is the Black-Scholes price of a European option on spot S with
// strike K, T years to expiry, risk-free rate r, carry q and volatility
// sigma. ok is false when any of sigma, T, S, K is not positive.
func Price(kind model.OptionKind, S, K, T, r, q, sigma float64) (float64, bool) {
	if sigma <= 0 || T <= 0 || S <= 0 || K <= 0 {
		return 0, false
	}
	sqrtT := math.Sqrt(T)
	d1 := (math.Log(S/K) + (r-q+0.5*sigma*sigma)*T) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	discS := S * math.Exp(-q*T)
	discK := K * math.Exp(-r*T)
	if kind == model.Put {
		return discK*normCDF(-d2) - discS*normCDF(-d1), true
	}
	return discS*normCDF(d1) - discK*normCDF(d2), true
}
