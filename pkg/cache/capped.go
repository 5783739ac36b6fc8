package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// Capped is a fixed-capacity cache with TTL expiry, backed by an expirable
// LRU. The bucket-backed storage adapter uses it to bound total cached
// entries in addition to entry age.
type Capped struct {
	lru   *lru.LRU[string, []byte]
	stats counters
}

// NewCapped creates a cache holding at most capacity entries, each expiring
// after ttl.
func NewCapped(capacity int, ttl time.Duration) *Capped {
	if capacity < 1 {
		capacity = 1
	}
	return &Capped{
		lru: lru.NewLRU[string, []byte](capacity, nil, ttl),
	}
}

// Get implements Cache.Get.
func (c *Capped) Get(key string) ([]byte, bool) {
	doc, ok := c.lru.Get(key)
	c.stats.record(ok)
	return doc, ok
}

// Set implements Cache.Set.
func (c *Capped) Set(key string, doc []byte) {
	c.lru.Add(key, doc)
}

// Delete implements Cache.Delete.
func (c *Capped) Delete(key string) {
	c.lru.Remove(key)
}

// Purge implements Cache.Purge.
func (c *Capped) Purge() {
	c.lru.Purge()
}

// Len returns the number of live entries.
func (c *Capped) Len() int { return c.lru.Len() }

// Stats returns hit/miss counts.
func (c *Capped) Stats() Stats { return c.stats.snapshot() }
