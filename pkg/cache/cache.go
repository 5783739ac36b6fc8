package cache

import "sync/atomic"

// Cache is a byte-document cache keyed by storage key. Expiry policy belongs
// to the implementation; a Get never returns an entry the implementation
// considers expired.
type Cache interface {
	// Get returns the cached document and whether it was present and fresh.
	Get(key string) ([]byte, bool)

	// Set stores the document under key.
	Set(key string, doc []byte)

	// Delete drops the entry for key, if any.
	Delete(key string)

	// Purge drops every entry.
	Purge()
}

// Read is the read-through helper: a fresh cached value is returned as-is,
// otherwise fetch is invoked, its result cached, and returned. A fetch
// failure propagates to the caller and is never cached.
func Read(c Cache, key string, fetch func() ([]byte, error)) ([]byte, error) {
	if doc, ok := c.Get(key); ok {
		return doc, nil
	}
	doc, err := fetch()
	if err != nil {
		return nil, err
	}
	c.Set(key, doc)
	return doc, nil
}

// Stats counts hits and misses for one cache instance.
type Stats struct {
	Hits   int64
	Misses int64
}

// HitRate returns the fraction of lookups served from cache.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type counters struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (c *counters) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
}

func (c *counters) snapshot() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}
