package calculator

// Sparkline min-max normalizes the finite values among the last n closes
// to [0,1], rounded to 4 decimals. Nil when fewer than two points remain
// or there is no variation.
func Sparkline(closes []float64, n int) []float64 {
	if len(closes) > n {
		closes = closes[len(closes)-n:]
	}
	pts := finite(closes)
	if len(pts) < 2 {
		return nil
	}
	low, high := valueRange(pts)
	if high <= low {
		return nil
	}
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = Round((p-low)/(high-low), 4)
	}
	return out
}
