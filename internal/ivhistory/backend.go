package ivhistory

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"MarketSnapshot/internal/series"
)

// Backend persists the history mapping between runs.
type Backend interface {
	Load() (map[string][]float64, error)
	Save(hist map[string][]float64) error
	Name() string
}

// FileBackend stores history as compact JSON: {"SYM": [iv, ...], ...}.
type FileBackend struct {
	Path string
}

func NewFileBackend(path string) *FileBackend { return &FileBackend{Path: path} }

func (b *FileBackend) Name() string { return "json:" + b.Path }

// Load reads the history file. A missing file is an empty history.
// Entries that are not finite numbers are dropped one by one, as are
// symbols whose value is not a list.
func (b *FileBackend) Load() (map[string][]float64, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]float64{}, nil
		}
		return nil, fmt.Errorf("read iv history: %w", err)
	}
	hist := map[string][]float64{}
	if len(data) == 0 {
		return hist, nil
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode iv history: %w", err)
	}
	for sym, v := range raw {
		items, ok := v.([]any)
		if !ok {
			continue
		}
		vals := make([]float64, 0, len(items))
		for _, item := range items {
			if f := series.ToFloat(item); !math.IsNaN(f) {
				vals = append(vals, f)
			}
		}
		hist[sym] = vals
	}
	return hist, nil
}

// Save writes the history through a temp file and rename.
func (b *FileBackend) Save(hist map[string][]float64) error {
	if dir := filepath.Dir(b.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create iv history dir: %w", err)
		}
	}
	data, err := json.Marshal(hist)
	if err != nil {
		return fmt.Errorf("encode iv history: %w", err)
	}
	tmp := b.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write iv history: %w", err)
	}
	if err := os.Rename(tmp, b.Path); err != nil {
		return fmt.Errorf("replace iv history: %w", err)
	}
	return nil
}
