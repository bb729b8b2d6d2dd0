package calculator

// PctChange returns closes[t]/closes[t-lag] - 1 for the last row t.
func PctChange(closes []float64, lag int) (float64, bool) {
	t := len(closes) - 1
	if lag <= 0 || t-lag < 0 {
		return 0, false
	}
	cur, prev := closes[t], closes[t-lag]
	if !isFinite(cur) || !isFinite(prev) || prev == 0 {
		return 0, false
	}
	r := cur/prev - 1
	return r, isFinite(r)
}
