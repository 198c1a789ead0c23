// Package cache provides the layered response cache used by the source
// client. Issue content is immutable once fetched, so cached pages can be
// served for the full TTL without revalidation.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the caching interface.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from a request URL (including query parameters).
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "hindsite:v1:" + hex.EncodeToString(hash[:])
}
