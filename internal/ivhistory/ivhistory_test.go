package ivhistory

import (
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankPercentile(t *testing.T) {
	window := []float64{0.2, 0.3, 0.4, 0.5}

	rank, pct := RankPercentile(window, 0.2)
	require.NotNil(t, rank)
	assert.Equal(t, 0.0, *rank)
	assert.Equal(t, 25.0, *pct)

	rank, pct = RankPercentile(window, 0.5)
	assert.Equal(t, 100.0, *rank)
	assert.Equal(t, 100.0, *pct)

	_, pct = RankPercentile(window, 0.1)
	assert.Equal(t, 0.0, *pct, "below every entry")

	_, pct = RankPercentile(window, 0.9)
	assert.Equal(t, 100.0, *pct, "above every entry")

	rank, pct = RankPercentile(window, 0.35)
	assert.Equal(t, 50.0, *rank)
	assert.Equal(t, 50.0, *pct)
}

func TestRankPercentile_Degenerate(t *testing.T) {
	rank, pct := RankPercentile([]float64{0.3, 0.3, 0.3}, 0.3)
	assert.Nil(t, rank, "no variation in window")
	require.NotNil(t, pct)
	assert.Equal(t, 100.0, *pct)

	rank, pct = RankPercentile(nil, 0.3)
	assert.Nil(t, rank)
	assert.Nil(t, pct)

	rank, pct = RankPercentile([]float64{math.NaN(), 0.2, 0.4}, 0.3)
	assert.Equal(t, 50.0, *rank)
	assert.Equal(t, 50.0, *pct)

	rank, pct = RankPercentile([]float64{0.2, 0.4}, math.NaN())
	assert.Nil(t, rank)
	assert.Nil(t, pct)
}

func TestRankPercentileTrailing(t *testing.T) {
	window := []float64{0.9, 0.1, 0.2, 0.3}
	rank, pct := RankPercentileTrailing(window, 0.3, 3)
	assert.Equal(t, 100.0, *rank)
	assert.Equal(t, 100.0, *pct)
}

func TestUpdate_IncludesCurrentObservation(t *testing.T) {
	store := NewMemoryStore(map[string][]float64{"AAPL": {0.2, 0.3, 0.4}}, Capacity)

	res := Update(store, "AAPL", 0.1)
	require.NotNil(t, res.IV30)
	assert.Equal(t, 0.1, *res.IV30)
	assert.Equal(t, 0.0, *res.IVRank)
	// 0.1 is counted in its own window: 1 of 4.
	assert.Equal(t, 25.0, *res.IVPercentile)
	assert.Equal(t, []float64{0.2, 0.3, 0.4, 0.1}, store.Window("AAPL"))
}

func TestUpdate_FirstObservation(t *testing.T) {
	store := NewMemoryStore(nil, Capacity)
	res := Update(store, "MSFT", 0.2512341)
	assert.Nil(t, res.IVRank)
	assert.Equal(t, 100.0, *res.IVPercentile)
	assert.Equal(t, []float64{0.251234}, store.Window("MSFT"))
}

func TestUpdate_RejectsUnusable(t *testing.T) {
	store := NewMemoryStore(nil, Capacity)
	for _, v := range []float64{0, -0.1, 5, 7, math.NaN(), math.Inf(1)} {
		res := Update(store, "X", v)
		assert.Nil(t, res.IV30)
		assert.Nil(t, res.IVPercentile)
	}
	assert.Empty(t, store.Window("X"))
}

func TestMemoryStore_CapacityEvictsOldest(t *testing.T) {
	store := NewMemoryStore(nil, Capacity)
	for i := 0; i < 300; i++ {
		store.Append("SPY", float64(i))
	}
	w := store.Window("SPY")
	require.Len(t, w, Capacity)
	assert.Equal(t, float64(300-Capacity), w[0])
	assert.Equal(t, 299.0, w[len(w)-1])
}

func TestMemoryStore_SeedsAreCleanedAndTrimmed(t *testing.T) {
	seed := make([]float64, 0, 260)
	for i := 0; i < 260; i++ {
		seed = append(seed, float64(i))
	}
	seed[259] = math.NaN()
	store := NewMemoryStore(map[string][]float64{"A": seed, "B": {0.1}}, Capacity)
	w := store.Window("A")
	assert.Len(t, w, Capacity)
	assert.Equal(t, 258.0, w[len(w)-1])
	assert.Equal(t, []string{"A", "B"}, store.Symbols())

	// Snapshot is a deep copy.
	snap := store.Snapshot()
	snap["B"][0] = 9
	assert.Equal(t, []float64{0.1}, store.Window("B"))
}

func TestMemoryStore_ConcurrentAppends(t *testing.T) {
	store := NewMemoryStore(nil, 1000)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				store.Append("QQQ", 0.2)
			}
		}()
	}
	wg.Wait()
	assert.Len(t, store.Window("QQQ"), 400)
}

func TestFileBackend_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "iv_history.json")
	b := NewFileBackend(path)

	hist, err := b.Load()
	require.NoError(t, err)
	assert.Empty(t, hist)

	require.NoError(t, b.Save(map[string][]float64{"AAPL": {0.21, 0.22}}))
	hist, err = b.Load()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.21, 0.22}, hist["AAPL"])

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, os.WriteFile(path, []byte("{bad"), 0o644))
	_, err = b.Load()
	assert.Error(t, err)
}

func TestFileBackend_DropsBadEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iv_history.json")
	doc := `{"AAPL":[0.2,null,"x",0.3,{"v":1}],"MSFT":"oops","SPY":[]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	hist, err := NewFileBackend(path).Load()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2, 0.3}, hist["AAPL"])
	assert.NotContains(t, hist, "MSFT")
	assert.Empty(t, hist["SPY"])
}

func TestSQLiteBackend_RoundTrip(t *testing.T) {
	b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "iv.db"))
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Save(map[string][]float64{"AAPL": {0.3, 0.1, 0.2}, "MSFT": {0.25}}))
	require.NoError(t, b.Save(map[string][]float64{"AAPL": {0.3, 0.1, 0.2, 0.4}}))

	hist, err := b.Load()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.3, 0.1, 0.2, 0.4}, hist["AAPL"], "insertion order is preserved")
	assert.NotContains(t, hist, "MSFT", "save replaces the stored mapping")
}
