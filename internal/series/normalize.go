package series

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

var trackedFields = []string{"Open", "High", "Low", "Close", "Volume"}

// Series is the normalized numeric view of a table. Undefined cells are NaN.
type Series struct {
	Time   []time.Time
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// Len returns the number of rows.
func (s Series) Len() int { return len(s.Close) }

// Normalize coerces a raw table into aligned numeric series. "Adj Close"
// stands in for a missing "Close". Rows where every tracked field is
// undefined are dropped. It never fails; an unusable table yields an
// empty Series.
func Normalize(t Table) Series {
	n := t.Len()
	cols := make(map[string][]float64, len(trackedFields))
	for _, name := range trackedFields {
		c, ok := t.Column(name)
		if !ok && name == "Close" {
			c, ok = t.Column("Adj Close")
		}
		cols[name] = coerceColumn(c, ok, n)
	}

	var s Series
	seen := make(map[int64]int, n)
	for i := 0; i < n; i++ {
		allMissing := true
		for _, name := range trackedFields {
			if !math.IsNaN(cols[name][i]) {
				allMissing = false
				break
			}
		}
		if allMissing {
			continue
		}
		var ts time.Time
		if i < len(t.Index) {
			ts = t.Index[i]
		}
		// A repeated timestamp replaces the earlier row in place.
		if !ts.IsZero() {
			key := ts.UnixNano()
			if at, dup := seen[key]; dup {
				s.Open[at] = cols["Open"][i]
				s.High[at] = cols["High"][i]
				s.Low[at] = cols["Low"][i]
				s.Close[at] = cols["Close"][i]
				s.Volume[at] = cols["Volume"][i]
				continue
			}
			seen[key] = len(s.Time)
		}
		s.Time = append(s.Time, ts)
		s.Open = append(s.Open, cols["Open"][i])
		s.High = append(s.High, cols["High"][i])
		s.Low = append(s.Low, cols["Low"][i])
		s.Close = append(s.Close, cols["Close"][i])
		s.Volume = append(s.Volume, cols["Volume"][i])
	}
	return s
}

func coerceColumn(c Column, ok bool, n int) []float64 {
	out := make([]float64, n)
	var cells []any
	if ok {
		cells = c.values()
	}
	for i := range out {
		if i < len(cells) {
			out[i] = ToFloat(cells[i])
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// ToFloat converts a loosely-typed cell into a float64. Anything that is
// not a finite number comes back as NaN.
func ToFloat(v any) float64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return math.NaN()
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return math.NaN()
		}
		f = x
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return math.NaN()
		}
		f = x
	case *float64:
		if n == nil {
			return math.NaN()
		}
		f = *n
	default:
		return math.NaN()
	}
	if math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

// Tail returns the last n rows of s.
func (s Series) Tail(n int) Series {
	if n >= s.Len() || n < 0 {
		return s
	}
	start := s.Len() - n
	return Series{
		Time:   s.Time[start:],
		Open:   s.Open[start:],
		High:   s.High[start:],
		Low:    s.Low[start:],
		Close:  s.Close[start:],
		Volume: s.Volume[start:],
	}
}
