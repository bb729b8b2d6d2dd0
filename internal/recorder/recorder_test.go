package recorder

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketSnapshot/internal/model"
)

func testSnapshot(runID string) *model.Snapshot {
	return &model.Snapshot{
		RunID:    runID,
		AsOfUTC:  "2024-03-01T22:30:00Z",
		Interval: "1d",
		Period:   "120d",
		RiskFree: 0.04,
		Count:    2,
		Data: []model.SnapshotRow{
			{Symbol: "AAPL", Price: model.Float(180.5), RSI14: model.Float(55.2), IV30: model.Float(0.24)},
			{Symbol: "BTC-USD", Price: model.Float(61000)},
		},
	}
}

func TestSQLiteRecorder_RecordSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.db")
	r, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer r.Close()

	latest, err := r.LatestRun()
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, r.RecordSnapshot(testSnapshot("run-1"), 1500*time.Millisecond))
	require.NoError(t, r.RecordSnapshot(testSnapshot("run-2"), 2*time.Second))

	latest, err = r.LatestRun()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "run-2", latest.RunID)
	assert.Equal(t, 2, latest.Count)
	assert.Equal(t, 2*time.Second, latest.Duration)

	var iv sql.NullFloat64
	require.NoError(t, r.db.QueryRow(`SELECT iv30 FROM snapshot_rows WHERE run_id = ? AND symbol = ?`, "run-1", "BTC-USD").Scan(&iv))
	assert.False(t, iv.Valid, "missing values are NULL")

	var n int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM snapshot_rows`).Scan(&n))
	assert.Equal(t, 4, n)

	assert.Error(t, r.RecordSnapshot(testSnapshot("run-1"), time.Second), "run ids are unique")
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordSnapshot(testSnapshot("x"), 0))
	latest, err := r.LatestRun()
	assert.NoError(t, err)
	assert.Nil(t, latest)
	assert.NoError(t, r.Close())
}
