// Package series turns loosely-typed OHLCV tables into clean numeric series.
package series

import (
	"time"

	"MarketSnapshot/internal/model"
)

// Column is one named column of a raw table. A column either carries
// Cells directly or wraps a nested frame in Nested, in which case the
// first nested column supplies the values.
type Column struct {
	Name   string
	Cells  []any
	Nested []Column
}

// Table is a raw price table as delivered by a data source: rows in
// time order, columns of arbitrary presence and cell type.
type Table struct {
	Index   []time.Time
	Columns []Column
}

// Len returns the number of rows.
func (t Table) Len() int {
	if len(t.Index) > 0 {
		return len(t.Index)
	}
	n := 0
	for _, c := range t.Columns {
		if l := len(c.values()); l > n {
			n = l
		}
	}
	return n
}

// Column returns the first column with the given name. Duplicated
// columns after the first are ignored.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (c Column) values() []any {
	if len(c.Nested) > 0 {
		return c.Nested[0].values()
	}
	return c.Cells
}

// TableFromBars builds a Table from typed bars.
func TableFromBars(bars []model.OHLCV) Table {
	t := Table{Index: make([]time.Time, len(bars))}
	cols := map[string][]any{}
	for i, b := range bars {
		t.Index[i] = b.Time
		cols["Open"] = append(cols["Open"], b.Open)
		cols["High"] = append(cols["High"], b.High)
		cols["Low"] = append(cols["Low"], b.Low)
		cols["Close"] = append(cols["Close"], b.Close)
		cols["Volume"] = append(cols["Volume"], b.Volume)
	}
	for _, name := range trackedFields {
		t.Columns = append(t.Columns, Column{Name: name, Cells: cols[name]})
	}
	return t
}
