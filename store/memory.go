package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// entry holds a stored value with its expiry. A zero expires never expires.
type entry struct {
	value   string
	expires time.Time
}

// MemoryKV is a thread-safe in-memory KV with TTL support.
type MemoryKV struct {
	data map[string]entry
	mu   sync.RWMutex
	now  func() time.Time
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// WithClock overrides the time source used for expiry.
func (m *MemoryKV) WithClock(now func() time.Time) *MemoryKV {
	m.now = now
	return m
}

func (m *MemoryKV) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}

func (m *MemoryKV) live(e entry) bool {
	return e.expires.IsZero() || m.now().Before(e.expires)
}

// Get implements KV.
func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return "", false, nil
	}

	if !m.live(e) {
		// Entry expired - clean it up
		m.mu.Lock()
		delete(m.data, key)
		m.mu.Unlock()
		return "", false, nil
	}

	return e.value, true, nil
}

// Set implements KV.
func (m *MemoryKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = entry{value: value, expires: m.expiry(ttl)}
	return nil
}

// Delete implements KV.
func (m *MemoryKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

// Incr implements KV.
func (m *MemoryKV) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	if e, ok := m.data[key]; ok && m.live(e) {
		v, err := strconv.ParseInt(e.value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value of %q is not an integer", key)
		}
		n = v
	}
	n++
	m.data[key] = entry{value: strconv.FormatInt(n, 10), expires: m.expiry(ttl)}
	return n, nil
}

// Len returns the number of entries (including expired ones).
func (m *MemoryKV) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Verify MemoryKV implements KV
var _ KV = (*MemoryKV)(nil)
