package model

import "time"

// OHLCV represents a single sampling period (one price bar).
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
