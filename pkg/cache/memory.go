package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryBackendOptions configures the in-memory cache backend.
type MemoryBackendOptions struct {
	MaxEntries     int    // 0 means unlimited
	EvictionPolicy string // fifo (default), lru, lfu
}

// MemoryBackend is a bounded in-memory key/value store with TTL expiry.
// Expired entries are treated as misses and dropped lazily on access.
type MemoryBackend struct {
	mu         sync.Mutex
	entries    map[string]*Entry
	maxEntries int
	policy     EvictionPolicy
}

// NewMemoryBackend creates an in-memory backend.
func NewMemoryBackend(opts MemoryBackendOptions) *MemoryBackend {
	return &MemoryBackend{
		entries:    make(map[string]*Entry),
		maxEntries: opts.MaxEntries,
		policy:     NewEvictionPolicy(opts.EvictionPolicy),
	}
}

// Get returns the live value for the key.
func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return "", false, nil
	}
	if time.Now().After(e.ExpiresAt) {
		delete(m.entries, key)
		return "", false, nil
	}

	e.LastAccessAt = time.Now()
	e.HitCount++
	return e.Value, true, nil
}

// SetWithTTL stores the value, evicting one victim first if the backend is
// at capacity.
func (m *MemoryBackend) SetWithTTL(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if _, exists := m.entries[key]; !exists && m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		m.evictLocked()
	}

	m.entries[key] = &Entry{
		Key:          key,
		Value:        value,
		StoredAt:     now,
		ExpiresAt:    now.Add(ttl),
		LastAccessAt: now,
	}
	return nil
}

func (m *MemoryBackend) evictLocked() {
	// Prefer dropping an already expired entry.
	now := time.Now()
	for key, e := range m.entries {
		if now.After(e.ExpiresAt) {
			delete(m.entries, key)
			return
		}
	}

	flat := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		flat = append(flat, *e)
	}
	if idx := m.policy.SelectVictim(flat); idx >= 0 {
		delete(m.entries, flat[idx].Key)
	}
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
