package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process TTL cache backed by go-cache. Feed results are
// never cached across process runs: stale news must not feed the oracle.
type Memory struct {
	cache *gocache.Cache
}

// NewMemory creates a memory cache with the given default TTL.
func NewMemory(defaultTTL, cleanupInterval time.Duration) *Memory {
	return &Memory{cache: gocache.New(defaultTTL, cleanupInterval)}
}

func (c *Memory) Get(key string) ([]byte, bool) {
	if val, found := c.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

func (c *Memory) Set(key string, value []byte, ttl time.Duration) {
	c.cache.Set(key, value, ttl)
}

func (c *Memory) Delete(key string) {
	c.cache.Delete(key)
}

func (c *Memory) Clear() {
	c.cache.Flush()
}
