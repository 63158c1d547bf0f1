// internal/adapter/memcache/cache.go

package memcache

import (
	"sync"
	"time"
)

// Cache is an in-memory key/value cache with per-entry expiry and a
// max-size eviction policy that drops the oldest entry first. It is
// injected into its owners so it can be swapped or disabled in tests.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	expiry     time.Duration
	maxEntries int
	now        func() time.Time
}

type entry struct {
	value    interface{}
	storedAt time.Time
}

// New creates a cache. A maxEntries <= 0 disables the size cap and an
// expiry <= 0 disables expiration.
func New(expiry time.Duration, maxEntries int) *Cache {
	return &Cache{
		entries:    make(map[string]entry),
		expiry:     expiry,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the cached value for key, or false if absent or expired.
// Expired entries are removed on access.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	if c.expiry > 0 && c.now().Sub(e.storedAt) >= c.expiry {
		delete(c.entries, key)
		return nil, false
	}

	return e.value, true
}

// Set stores a value under key, evicting the oldest entry when the
// size cap would be exceeded.
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: value, storedAt: c.now()}

	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.evictOldest()
	}
}

// Len returns the number of entries currently held, including any that
// have expired but not yet been removed.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldest removes the entry with the earliest stored-at timestamp.
// Caller must hold the lock.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	first := true
	for key, e := range c.entries {
		if first || e.storedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.storedAt
			first = false
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
