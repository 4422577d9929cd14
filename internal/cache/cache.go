// Package cache provides short-lived caching of feed responses so that
// repeated queries within one sync pass do not re-hit the proxy.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching raw response bodies.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Delete(key string)
	Clear()
}

// Key generates a cache key from a fetched URL.
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "settler:v1:" + hex.EncodeToString(hash[:])
}
