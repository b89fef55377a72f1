package economy

import (
	"math"
	"sync"
)

//go:generate go tool mockgen -destination=./mocks/variable_store_mock.go -package=mocks . VariableStore

// VariableStore is the host's key-indexed numeric store. Demand, economic
// power, event modifiers and restock overrides all live here. Unset keys
// read as 0. Key 0 is never bound.
type VariableStore interface {
	Value(key int) float64
	SetValue(key int, value float64)
}

// MemoryStore is an in-process VariableStore.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[int]float64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[int]float64)}
}

func (s *MemoryStore) Value(key int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

func (s *MemoryStore) SetValue(key int, value float64) {
	if key <= 0 {
		return
	}
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}

// Snapshot returns a copy of every stored value.
func (s *MemoryStore) Snapshot() map[int]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int]float64, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Load replaces the store contents.
func (s *MemoryStore) Load(values map[int]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = make(map[int]float64, len(values))
	for k, v := range values {
		if k > 0 {
			s.values[k] = v
		}
	}
}

// signal reads a pricing signal. Unbound, unset, zero or non-finite values
// fall back to 1, independently for each signal.
func signal(vars VariableStore, key int) float64 {
	if vars == nil || key <= 0 {
		return 1
	}
	v := vars.Value(key)
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1
	}
	return v
}
