package cache

import (
	"context"
	"sync"
)

// MemoryStore is a Store that never touches disk. LoadErr and SaveErr, when
// set, are returned from the matching call.
type MemoryStore struct {
	mu      sync.Mutex
	data    map[string]Entry
	saves   int
	LoadErr error
	SaveErr error
}

func NewMemoryStore(seed map[string]Entry) *MemoryStore {
	data := make(map[string]Entry, len(seed))
	for k, v := range seed {
		data[k] = v
	}
	return &MemoryStore{data: data}
}

func (m *MemoryStore) Load(ctx context.Context) (*Cache, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return New(), m.LoadErr
	}
	return fromMap(m.data), nil
}

func (m *MemoryStore) Save(ctx context.Context, c *Cache) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.data = c.toMap()
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Snapshot returns a copy of what was last saved.
func (m *MemoryStore) Snapshot() map[string]Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Entry, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}

// Saves reports how many times Save was called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
