package cache

import (
	"sync"
	"time"

	"tho/simplercv/internal/core/rate"
)

// RateCache keeps the last UF read from the datastore for a short TTL, so
// back-to-back syncs do not query uf_valores each time. Fallback values are
// never cached.
type RateCache struct {
	mu        sync.RWMutex
	value     rate.UF
	set       bool
	expiresAt time.Time
	now       func() time.Time
}

// NewRateCache creates an empty cache.
func NewRateCache() *RateCache {
	return &RateCache{now: time.Now}
}

// Get returns the cached UF while it is fresh.
func (c *RateCache) Get() (rate.UF, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.set || !c.now().Before(c.expiresAt) {
		return rate.UF{}, false
	}
	return c.value, true
}

// Set stores uf for ttl. A non-positive ttl clears the cache.
func (c *RateCache) Set(uf rate.UF, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		c.value, c.set, c.expiresAt = rate.UF{}, false, time.Time{}
		return
	}
	c.value = uf
	c.set = true
	c.expiresAt = c.now().Add(ttl)
}

// Clear drops the cached value.
func (c *RateCache) Clear() {
	c.Set(rate.UF{}, 0)
}
