package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"MarketSnapshot/internal/model"
)

// Writer publishes a finished snapshot somewhere.
type Writer interface {
	Write(snap *model.Snapshot) error
	Name() string
}

// JSONWriter writes the snapshot document, indented or compact.
type JSONWriter struct {
	Path   string
	Pretty bool
}

func (w *JSONWriter) Name() string { return "json:" + w.Path }

// Write replaces the file atomically via a temp file and rename.
func (w *JSONWriter) Write(snap *model.Snapshot) error {
	var data []byte
	var err error
	if w.Pretty {
		data, err = json.MarshalIndent(snap, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = json.Marshal(snap)
	}
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return writeAtomic(w.Path, data)
}

func writeAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// ParquetRow is the flat, columnar form of a snapshot row. Spark and
// history arrays are left out.
type ParquetRow struct {
	RunID        string   `parquet:"run_id"`
	AsOfUTC      string   `parquet:"as_of_utc"`
	Symbol       string   `parquet:"symbol"`
	Name         string   `parquet:"name"`
	Price        *float64 `parquet:"price,optional"`
	Ret1         *float64 `parquet:"ret1d,optional"`
	Ret5         *float64 `parquet:"ret5d,optional"`
	RSI14        *float64 `parquet:"rsi14,optional"`
	VolZ         *float64 `parquet:"vol_z,optional"`
	Sharpe       *float64 `parquet:"sharpe,optional"`
	IV30         *float64 `parquet:"iv30,optional"`
	IVRank       *float64 `parquet:"iv_rank,optional"`
	IVPercentile *float64 `parquet:"iv_percentile,optional"`
	MarketCap    *float64 `parquet:"mcap,optional"`
	PETTM        *float64 `parquet:"pe_ttm,optional"`
	PB           *float64 `parquet:"pb,optional"`
	DivYield     *float64 `parquet:"div_yield,optional"`
	Beta         *float64 `parquet:"beta,optional"`
}

// ParquetWriter exports the rows of each snapshot as a Parquet file.
type ParquetWriter struct {
	Path string
}

func (w *ParquetWriter) Name() string { return "parquet:" + w.Path }

func (w *ParquetWriter) Write(snap *model.Snapshot) error {
	rows := make([]ParquetRow, 0, len(snap.Data))
	for _, r := range snap.Data {
		rows = append(rows, ParquetRow{
			RunID:        snap.RunID,
			AsOfUTC:      snap.AsOfUTC,
			Symbol:       r.Symbol,
			Name:         r.Name,
			Price:        r.Price,
			Ret1:         r.Ret1,
			Ret5:         r.Ret5,
			RSI14:        r.RSI14,
			VolZ:         r.VolZ,
			Sharpe:       r.Sharpe,
			IV30:         r.IV30,
			IVRank:       r.IVRank,
			IVPercentile: r.IVPercentile,
			MarketCap:    r.MarketCap,
			PETTM:        r.PETTM,
			PB:           r.PB,
			DivYield:     r.DivYield,
			Beta:         r.Beta,
		})
	}
	if dir := filepath.Dir(w.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}
	if err := parquet.WriteFile(w.Path, rows); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}
	return nil
}
