package rag

import (
	"context"
	"sync"
)

// MemoryStore keeps chunks in per-tenant slices. It is the fallback when no
// durable chunk store is configured; data does not survive a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks map[string][]Chunk // tenantID -> chunks
}

// NewMemoryStore creates an empty in-memory chunk store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chunks: make(map[string][]Chunk)}
}

// InsertChunks appends chunks under the tenant.
func (m *MemoryStore) InsertChunks(_ context.Context, tenantID string, chunks []Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.chunks[tenantID] = append(m.chunks[tenantID], chunks...)
	return nil
}

// FetchChunks returns a copy of the tenant's chunks.
func (m *MemoryStore) FetchChunks(_ context.Context, tenantID string) ([]Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.chunks[tenantID]
	out := make([]Chunk, len(stored))
	copy(out, stored)
	return out, nil
}

// DeleteChunks removes everything stored under the tenant.
func (m *MemoryStore) DeleteChunks(_ context.Context, tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.chunks, tenantID)
	return nil
}
