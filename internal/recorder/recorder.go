package recorder

import (
	"time"

	"MarketSnapshot/internal/model"
)

// RunSummary is the stored header of one snapshot build.
type RunSummary struct {
	RunID    string
	AsOfUTC  string
	Interval string
	Period   string
	RiskFree float64
	Count    int
	Duration time.Duration
}

// Recorder persists historical snapshots for analysis.
type Recorder interface {
	RecordSnapshot(snap *model.Snapshot, took time.Duration) error
	// LatestRun returns the most recent run, or nil when none is stored.
	LatestRun() (*RunSummary, error)
	Close() error
}
