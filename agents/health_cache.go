package agents

import (
	"sync"
	"time"
)

// DefaultHealthCacheTTL is how long a dependency probe result stays fresh.
const DefaultHealthCacheTTL = 30 * time.Second

// HealthCache remembers the last dependency probe result for a TTL so
// that repeated availability checks (the health endpoint polls them) do
// not burn provider quota.
type HealthCache struct {
	mu        sync.RWMutex
	available bool
	checkedAt time.Time
	ttl       time.Duration
}

// NewHealthCache creates a HealthCache. A TTL of 0 disables caching:
// every check goes to the provider.
func NewHealthCache(ttl time.Duration) *HealthCache {
	return &HealthCache{ttl: ttl}
}

// IsValid reports whether the cached result is still within its TTL.
func (c *HealthCache) IsValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.checkedAt.IsZero() && time.Since(c.checkedAt) < c.ttl
}

// Get returns the cached availability and whether it is still fresh.
func (c *HealthCache) Get() (available bool, valid bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	valid = !c.checkedAt.IsZero() && time.Since(c.checkedAt) < c.ttl
	return c.available, valid
}

// Set records a fresh probe result.
func (c *HealthCache) Set(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.available = available
	c.checkedAt = time.Now()
}

// Invalidate drops the cached result so the next check probes live.
func (c *HealthCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkedAt = time.Time{}
}

// TTL returns the cache's time-to-live.
func (c *HealthCache) TTL() time.Duration {
	return c.ttl
}
