package calculator

import "math"

// VolumeZScore is the z-score of the latest log volume against the
// trailing window of log volumes (the latest included). Zero volumes are
// undefined, as is a window without variation. Needs at least window defined volume samples overall and a
// fully defined trailing window.
func VolumeZScore(volume []float64, window int) (float64, bool) {
	if window < 2 || len(finite(volume)) < window || len(volume) < window {
		return 0, false
	}
	tail := volume[len(volume)-window:]
	logs := make([]float64, len(tail))
	for i, v := range tail {
		if !isFinite(v) || v <= 0 {
			return 0, false
		}
		logs[i] = math.Log(v)
	}
	mu, sd, ok := meanStdDev(logs)
	if !ok {
		return 0, false
	}
	z := (logs[len(logs)-1] - mu) / sd
	return z, isFinite(z)
}
