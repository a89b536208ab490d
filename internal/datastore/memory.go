package datastore

import "sync"

// Memory is an in-process Datastore with an optional byte quota, the way a
// browser's local storage caps what a single origin may hold.
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
	size  int
	quota int
}

// NewMemory returns an empty store. A quota of 0 means unlimited.
// Usage is counted as len(key)+len(value) across all entries.
func NewMemory(quota int) *Memory {
	return &Memory{
		items: make(map[string]string),
		quota: quota,
	}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *Memory) Put(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.size + len(key) + len(value)
	if old, ok := m.items[key]; ok {
		next -= len(key) + len(old)
	}
	if m.quota > 0 && next > m.quota {
		return &WriteError{Key: key, Err: ErrQuotaExceeded}
	}
	m.items[key] = value
	m.size = next
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.items[key]; ok {
		m.size -= len(key) + len(old)
		delete(m.items, key)
	}
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]string)
	m.size = 0
	return nil
}

func (m *Memory) List() (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.items))
	for k, v := range m.items {
		out[k] = v
	}
	return out, nil
}

// Size returns the bytes currently counted against the quota.
func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}

func (m *Memory) Close() error { return nil }
