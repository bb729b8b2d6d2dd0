// Package ivhistory keeps per-symbol rolling IV30 windows and ranks new
// observations against them.
package ivhistory

import (
	"math"
	"sort"
	"sync"
)

// Capacity is the default window length, about one trading year.
const Capacity = 252

// Store is the history abstraction the normalizer mutates. Implementations
// choose their own concurrency discipline.
type Store interface {
	// Window returns a copy of the symbol's window, oldest first.
	Window(symbol string) []float64
	// Append adds v to the symbol's window, evicting the oldest values
	// beyond capacity, and returns a copy of the updated window.
	Append(symbol string, v float64) []float64
	// Snapshot returns a deep copy of every window, for persistence.
	Snapshot() map[string][]float64
}

// MemoryStore is a mutex-guarded in-memory Store.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	windows  map[string][]float64
}

// NewMemoryStore seeds a store from persisted windows. Non-finite values
// are dropped and each window is trimmed to capacity.
func NewMemoryStore(initial map[string][]float64, capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = Capacity
	}
	s := &MemoryStore{capacity: capacity, windows: make(map[string][]float64, len(initial))}
	for sym, vals := range initial {
		clean := make([]float64, 0, len(vals))
		for _, v := range vals {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				clean = append(clean, v)
			}
		}
		s.windows[sym] = trim(clean, capacity)
	}
	return s
}

func (s *MemoryStore) Window(symbol string) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.windows[symbol]...)
}

func (s *MemoryStore) Append(symbol string, v float64) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := trim(append(s.windows[symbol], v), s.capacity)
	s.windows[symbol] = w
	return append([]float64(nil), w...)
}

func (s *MemoryStore) Snapshot() map[string][]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]float64, len(s.windows))
	for sym, w := range s.windows {
		out[sym] = append([]float64(nil), w...)
	}
	return out
}

// Symbols lists the symbols with a window, sorted.
func (s *MemoryStore) Symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	syms := make([]string, 0, len(s.windows))
	for sym := range s.windows {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}

func trim(w []float64, capacity int) []float64 {
	if len(w) > capacity {
		w = append([]float64(nil), w[len(w)-capacity:]...)
	}
	return w
}
