// Package cache implements the tenant-scoped response cache consulted before
// any paid model call. Caching is best-effort: a failing or absent backend
// degrades to misses and dropped writes, never to pipeline errors.
package cache

import (
	"context"
	"time"

	"github.com/openclaw/openclaw/pkg/fingerprint"
	"github.com/openclaw/openclaw/pkg/observability"
	"github.com/openclaw/openclaw/pkg/observability/metrics"
)

// DefaultTTL is how long a cached response stays valid.
const DefaultTTL = 24 * time.Hour

// Backend is the narrow key/value contract a cache store must provide.
// Implementations report misses via the bool, failures via the error.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
}

// ResponseCache keys responses by tenant plus the shared message
// fingerprint, so equivalent texts hit the same entry and no entry is ever
// visible across tenants.
type ResponseCache struct {
	backend Backend
	ttl     time.Duration
}

// New creates a response cache over the given backend. A nil backend
// disables caching entirely: every lookup misses and every store is a no-op.
func New(backend Backend, ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResponseCache{backend: backend, ttl: ttl}
}

func cacheKey(tenantID, text string) string {
	return "cache:" + tenantID + ":" + fingerprint.Of(text)
}

// Lookup returns the cached response for an equivalent message from this
// tenant, if one is live. Backend failures are logged and count as misses.
func (c *ResponseCache) Lookup(ctx context.Context, tenantID, text string) (string, bool) {
	if c == nil || c.backend == nil {
		return "", false
	}

	value, found, err := c.backend.Get(ctx, cacheKey(tenantID, text))
	if err != nil {
		observability.Warnf("cache lookup failed for tenant %s: %v", tenantID, err)
		metrics.RecordCacheLookup(false)
		return "", false
	}
	metrics.RecordCacheLookup(found)
	return value, found
}

// Store writes a response for the tenant. Empty responses are skipped; the
// pipeline already refuses to cache moderation outcomes. Write failures are
// logged and dropped.
func (c *ResponseCache) Store(ctx context.Context, tenantID, text, response string) {
	if c == nil || c.backend == nil || response == "" {
		return
	}

	if err := c.backend.SetWithTTL(ctx, cacheKey(tenantID, text), response, c.ttl); err != nil {
		observability.Warnf("cache store failed for tenant %s: %v", tenantID, err)
	}
}
