package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemCache(t *testing.T) *ResponseCache {
	t.Helper()
	return New(NewMemoryBackend(MemoryBackendOptions{}), time.Hour)
}

func TestResponseCache_RoundTrip(t *testing.T) {
	c := newMemCache(t)
	ctx := context.Background()

	_, found := c.Lookup(ctx, "t1", "what are the rules?")
	require.False(t, found)

	c.Store(ctx, "t1", "what are the rules?", "check the rules channel")

	got, found := c.Lookup(ctx, "t1", "what are the rules?")
	require.True(t, found)
	assert.Equal(t, "check the rules channel", got)
}

func TestResponseCache_NormalizedTextsShareEntry(t *testing.T) {
	c := newMemCache(t)
	ctx := context.Background()

	c.Store(ctx, "t1", "What are the RULES?!", "check the rules channel")

	got, found := c.Lookup(ctx, "t1", "what are the rules")
	require.True(t, found)
	assert.Equal(t, "check the rules channel", got)
}

func TestResponseCache_TenantIsolation(t *testing.T) {
	c := newMemCache(t)
	ctx := context.Background()

	c.Store(ctx, "t1", "secret question", "tenant one answer")

	_, found := c.Lookup(ctx, "t2", "secret question")
	assert.False(t, found, "an entry written under t1 must never be returned for t2")
}

func TestResponseCache_EmptyResponseNotStored(t *testing.T) {
	c := newMemCache(t)
	ctx := context.Background()

	c.Store(ctx, "t1", "question", "")
	_, found := c.Lookup(ctx, "t1", "question")
	assert.False(t, found)
}

func TestResponseCache_NilBackendDegrades(t *testing.T) {
	c := New(nil, time.Hour)
	ctx := context.Background()

	c.Store(ctx, "t1", "question", "answer")
	_, found := c.Lookup(ctx, "t1", "question")
	assert.False(t, found, "nil backend means caching is disabled, not broken")
}

type failingBackend struct{}

func (f *failingBackend) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("store unreachable")
}

func (f *failingBackend) SetWithTTL(context.Context, string, string, time.Duration) error {
	return errors.New("store unreachable")
}

func TestResponseCache_BackendFailureIsAMiss(t *testing.T) {
	c := New(&failingBackend{}, time.Hour)
	ctx := context.Background()

	c.Store(ctx, "t1", "question", "answer")
	_, found := c.Lookup(ctx, "t1", "question")
	assert.False(t, found)
}

func TestMemoryBackend_TTLExpiry(t *testing.T) {
	b := NewMemoryBackend(MemoryBackendOptions{})
	ctx := context.Background()

	require.NoError(t, b.SetWithTTL(ctx, "k", "v", -time.Second))

	_, found, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found, "expired entry is a miss")
	assert.Equal(t, 0, b.Len(), "expired entry is dropped lazily on access")
}

func TestMemoryBackend_EvictsAtCapacity(t *testing.T) {
	b := NewMemoryBackend(MemoryBackendOptions{MaxEntries: 2, EvictionPolicy: "fifo"})
	ctx := context.Background()

	require.NoError(t, b.SetWithTTL(ctx, "a", "1", time.Hour))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, b.SetWithTTL(ctx, "b", "2", time.Hour))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, b.SetWithTTL(ctx, "c", "3", time.Hour))

	assert.Equal(t, 2, b.Len())
	_, found, _ := b.Get(ctx, "a")
	assert.False(t, found, "FIFO evicts the oldest entry")
	_, found, _ = b.Get(ctx, "c")
	assert.True(t, found)
}

func TestEvictionPolicies(t *testing.T) {
	now := time.Now()
	entries := []Entry{
		{Key: "old", StoredAt: now.Add(-3 * time.Hour), LastAccessAt: now, HitCount: 5},
		{Key: "cold", StoredAt: now, LastAccessAt: now.Add(-2 * time.Hour), HitCount: 5},
		{Key: "rare", StoredAt: now, LastAccessAt: now, HitCount: 1},
	}

	assert.Equal(t, 0, (&FIFOPolicy{}).SelectVictim(entries))
	assert.Equal(t, 1, (&LRUPolicy{}).SelectVictim(entries))
	assert.Equal(t, 2, (&LFUPolicy{}).SelectVictim(entries))

	assert.Equal(t, -1, (&FIFOPolicy{}).SelectVictim(nil))
}
