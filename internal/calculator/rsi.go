package calculator

// CalculateRSI computes the RSI over the finite closes. Gains and losses
// are smoothed with an exponential average of alpha 1/period seeded with
// zero at the first close, so the value is defined once period closes
// are available. A zero average loss reads as 100.
func CalculateRSI(closes []float64, period int) (float64, bool) {
	if period <= 0 {
		return 0, false
	}
	closes = finite(closes)
	if len(closes) < period {
		return 0, false
	}

	alpha := 1 / float64(period)
	var avgGain, avgLoss float64
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain += alpha * (gain - avgGain)
		avgLoss += alpha * (loss - avgLoss)
	}

	if avgLoss == 0 {
		return 100.0, true
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs), true
}
