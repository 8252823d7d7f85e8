package kvstore

import (
	"context"
	"sync"
)

// Memory is an in-process Storage. It can enforce a byte quota and inject
// failures, which makes it the default double in tests.
type Memory struct {
	mu       sync.RWMutex
	items    map[string]string
	quota    int
	used     int
	getErr   error
	setErr   error
	setCalls int
}

// MemoryOption configures a Memory instance.
type MemoryOption func(*Memory)

// WithQuota limits the total size of keys plus values in bytes. Zero disables
// the limit.
func WithQuota(bytes int) MemoryOption {
	return func(m *Memory) {
		if bytes > 0 {
			m.quota = bytes
		}
	}
}

// WithGetError makes every GetItem call fail with err.
func WithGetError(err error) MemoryOption {
	return func(m *Memory) { m.getErr = err }
}

// WithSetError makes every SetItem call fail with err.
func WithSetError(err error) MemoryOption {
	return func(m *Memory) { m.setErr = err }
}

// NewMemory returns an empty in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{items: make(map[string]string)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetItem implements Storage.
func (m *Memory) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	value, ok := m.items[key]
	return value, ok, nil
}

// SetItem implements Storage.
func (m *Memory) SetItem(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}

	used := m.used
	if old, ok := m.items[key]; ok {
		used -= len(key) + len(old)
	}
	used += len(key) + len(value)
	if m.quota > 0 && used > m.quota {
		return ErrQuotaExceeded
	}
	m.items[key] = value
	m.used = used
	return nil
}

// Seed stores raw items without quota checks.
func (m *Memory) Seed(items map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range items {
		if old, ok := m.items[k]; ok {
			m.used -= len(k) + len(old)
		}
		m.items[k] = v
		m.used += len(k) + len(v)
	}
}

// Snapshot returns a copy of the stored items.
func (m *Memory) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.items))
	for k, v := range m.items {
		out[k] = v
	}
	return out
}

// SetCalls reports how many SetItem calls were attempted.
func (m *Memory) SetCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.setCalls
}
