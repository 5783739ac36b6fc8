package cache

import (
	"hash/fnv"
	"sync"
	"time"
)

// ShardedTTL is a TTL-expiring cache split into independently-locked shards.
// The shard count bounds lock contention; entries are evicted purely by age,
// never by an LRU or size bound.
type ShardedTTL struct {
	shards []*shard
	ttl    time.Duration
	stats  counters

	now func() time.Time
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	doc     []byte
	written time.Time
}

// NewShardedTTL creates a cache with the given shard count and default
// maximum entry age.
func NewShardedTTL(shards int, ttl time.Duration) *ShardedTTL {
	if shards < 1 {
		shards = 1
	}
	c := &ShardedTTL{
		shards: make([]*shard, shards),
		ttl:    ttl,
		now:    time.Now,
	}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[string]entry)}
	}
	return c
}

func (c *ShardedTTL) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[int(h.Sum32())%len(c.shards)]
}

// Get implements Cache.Get using the cache's default TTL.
func (c *ShardedTTL) Get(key string) ([]byte, bool) {
	return c.GetWithin(key, c.ttl)
}

// GetWithin returns the cached document only if it is younger than maxAge.
// A stale entry is removed on the spot.
func (c *ShardedTTL) GetWithin(key string, maxAge time.Duration) ([]byte, bool) {
	s := c.shardFor(key)
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		c.stats.record(false)
		return nil, false
	}
	if c.now().Sub(e.written) >= maxAge {
		s.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have
		// refreshed the entry.
		if cur, still := s.entries[key]; still && c.now().Sub(cur.written) >= maxAge {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		c.stats.record(false)
		return nil, false
	}
	c.stats.record(true)
	return e.doc, true
}

// Read returns a cached value younger than maxAge, else invokes fetch,
// stores the result, and returns it. Fetch failures propagate and are never
// cached.
func (c *ShardedTTL) Read(key string, maxAge time.Duration, fetch func() ([]byte, error)) ([]byte, error) {
	if doc, ok := c.GetWithin(key, maxAge); ok {
		return doc, nil
	}
	doc, err := fetch()
	if err != nil {
		return nil, err
	}
	c.Set(key, doc)
	return doc, nil
}

// Set implements Cache.Set.
func (c *ShardedTTL) Set(key string, doc []byte) {
	s := c.shardFor(key)
	s.mu.Lock()
	s.entries[key] = entry{doc: doc, written: c.now()}
	s.mu.Unlock()
}

// Delete implements Cache.Delete.
func (c *ShardedTTL) Delete(key string) {
	s := c.shardFor(key)
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Purge implements Cache.Purge.
func (c *ShardedTTL) Purge() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[string]entry)
		s.mu.Unlock()
	}
}

// Len returns the number of entries across all shards, including entries
// that have aged out but not yet been evicted.
func (c *ShardedTTL) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// Stats returns hit/miss counts.
func (c *ShardedTTL) Stats() Stats { return c.stats.snapshot() }
