// Package memory provides map-backed implementations of the domain
// repositories, the sequence allocator and the transaction manager.
// Scopes serialize on a single lock, which matches the single-writer
// model of the lending engine; the gorm implementations are the
// durable alternative with real rollback.
package memory

import (
	"context"
	"sync"
)

// MemoryTxManager implements shared.TxManager by serializing scopes on
// one lock. Writes inside a scope apply immediately; an aborted scope
// is not rolled back.
type MemoryTxManager struct {
	mu sync.Mutex
}

// NewMemoryTxManager creates a MemoryTxManager
func NewMemoryTxManager() *MemoryTxManager {
	return &MemoryTxManager{}
}

// WithinTx runs fn while holding the scope lock
func (m *MemoryTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

// MemorySequence implements shared.Sequence with per-name counters
type MemorySequence struct {
	mu       sync.Mutex
	counters map[string]uint64
}

// NewMemorySequence creates an empty MemorySequence
func NewMemorySequence() *MemorySequence {
	return &MemorySequence{counters: make(map[string]uint64)}
}

// Next returns the next identifier for the named sequence, starting at 0
func (s *MemorySequence) Next(ctx context.Context, name string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.counters[name]
	s.counters[name] = next + 1
	return next, nil
}
