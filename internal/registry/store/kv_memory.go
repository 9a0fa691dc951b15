package store

import (
	"context"
	"sync"

	"assetd/pkg/platform/sentinel"
)

// MemoryBackend keeps the registry in process memory. It backs tests and
// ephemeral deployments and favors clarity over performance.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(_ context.Context, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(v), nil
}

// Apply validates the read set and applies every write under one lock.
func (m *MemoryBackend) Apply(_ context.Context, batch *Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range batch.Reads {
		v, ok := m.data[string(r.Key)]
		if !r.Matches(v, ok) {
			return sentinel.ErrConflict
		}
	}
	for _, w := range batch.Writes {
		m.data[string(w.Key)] = clone(w.Value)
	}
	return nil
}

func (m *MemoryBackend) Close() error { return nil }

// Snapshot returns a deep copy of every stored key and value.
func (m *MemoryBackend) Snapshot() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		out[k] = clone(v)
	}
	return out
}

// Put writes key directly, bypassing transactions. Tests use it to seed
// states that the registry itself would never produce.
func (m *MemoryBackend) Put(key, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = clone(value)
}
