package storage

import (
	"context"
	"strings"

	"github.com/platinummonkey/warden/pkg/cache"
)

// cacheName labels this wrapper's hit/miss counters.
const cacheName = "directory"

// CacheMetrics counts read-through cache outcomes by cache name.
type CacheMetrics interface {
	RecordCacheHit(cache string)
	RecordCacheMiss(cache string)
}

// CachedBackend wraps a Backend with a read-through cache for keys under the
// configured prefixes — identity and group lookups on the higher-latency
// backends. Writes and deletes invalidate the wrapped key and are never
// served from cache.
type CachedBackend struct {
	inner    Backend
	cache    cache.Cache
	prefixes []string
	metrics  CacheMetrics
}

// NewCached wraps inner so that Load calls for keys under the given prefixes
// go through c. Keys outside the prefixes bypass the cache entirely.
func NewCached(inner Backend, c cache.Cache, prefixes ...string) *CachedBackend {
	return &CachedBackend{inner: inner, cache: c, prefixes: prefixes}
}

// SetMetrics attaches hit/miss counters to the read-through path.
func (b *CachedBackend) SetMetrics(m CacheMetrics) { b.metrics = m }

func (b *CachedBackend) cacheable(key string) bool {
	for _, p := range b.prefixes {
		if strings.HasPrefix(key, p+"/") {
			return true
		}
	}
	return false
}

// Load implements Backend.Load. Fetch failures — including ErrKeyNotFound —
// propagate and are never cached.
func (b *CachedBackend) Load(ctx context.Context, key string) ([]byte, error) {
	if !b.cacheable(key) {
		return b.inner.Load(ctx, key)
	}
	if doc, ok := b.cache.Get(key); ok {
		if b.metrics != nil {
			b.metrics.RecordCacheHit(cacheName)
		}
		return doc, nil
	}
	if b.metrics != nil {
		b.metrics.RecordCacheMiss(cacheName)
	}
	doc, err := b.inner.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	b.cache.Set(key, doc)
	return doc, nil
}

// Store implements Backend.Store, invalidating the cached entry.
func (b *CachedBackend) Store(ctx context.Context, key string, doc []byte) error {
	if err := b.inner.Store(ctx, key, doc); err != nil {
		return err
	}
	b.cache.Delete(key)
	return nil
}

// Create implements Backend.Create, invalidating the cached entry.
func (b *CachedBackend) Create(ctx context.Context, key string, doc []byte) error {
	if err := b.inner.Create(ctx, key, doc); err != nil {
		return err
	}
	b.cache.Delete(key)
	return nil
}

// Delete implements Backend.Delete, invalidating the cached entry.
func (b *CachedBackend) Delete(ctx context.Context, key string) error {
	if err := b.inner.Delete(ctx, key); err != nil {
		return err
	}
	b.cache.Delete(key)
	return nil
}

// ListKeysBelow implements Backend.ListKeysBelow. Listings always hit the
// backend; only single-document reads are cached.
func (b *CachedBackend) ListKeysBelow(ctx context.Context, prefix string) ([]string, error) {
	return b.inner.ListKeysBelow(ctx, prefix)
}

// HealthCheck delegates to the wrapped backend when it supports the check.
func (b *CachedBackend) HealthCheck(ctx context.Context) error {
	if hc, ok := b.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
