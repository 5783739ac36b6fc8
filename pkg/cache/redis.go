package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis is a shared cache for multi-process deployments. Entry expiry is
// enforced server-side via the per-key TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	stats  counters
}

// NewRedis connects to the given Redis instance and verifies the connection
// with a ping.
func NewRedis(addr, password string, db int, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Redis{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (c *Redis) Close() error {
	return c.client.Close()
}

// Get implements Cache.Get. Connection failures are treated as misses; the
// read-through path falls back to the backend.
func (c *Redis) Get(key string) ([]byte, bool) {
	doc, err := c.client.Get(context.Background(), key).Bytes()
	if err != nil {
		c.stats.record(false)
		return nil, false
	}
	c.stats.record(true)
	return doc, true
}

// Set implements Cache.Set. A failed write is dropped silently; the cache
// never makes a storage operation fail.
func (c *Redis) Set(key string, doc []byte) {
	c.client.Set(context.Background(), key, doc, c.ttl)
}

// Delete implements Cache.Delete.
func (c *Redis) Delete(key string) {
	c.client.Del(context.Background(), key)
}

// Purge implements Cache.Purge by flushing the configured database.
func (c *Redis) Purge() {
	c.client.FlushDB(context.Background())
}

// Stats returns hit/miss counts observed by this process.
func (c *Redis) Stats() Stats { return c.stats.snapshot() }
