// Package cache implements a process-wide in-memory key/value store with
// per-entry expiration and heuristic pattern invalidation. One instance is
// built by the composition root and shared by reference; there is no
// package-level singleton.
package cache

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultTTL applies when a caller passes a non-positive TTL and the cache
// was constructed without an explicit default.
const DefaultTTL = 5 * time.Minute

type entry struct {
	value     any
	expiresAt time.Time
	timer     *time.Timer
}

// Stats is a point-in-time snapshot of the cache contents.
type Stats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

// Cache is safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	defaultTTL time.Duration
	now        func() time.Time // replaced in tests
}

// New constructs a cache with the given default TTL (<=0 means DefaultTTL).
func New(defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Cache{
		entries:    make(map[string]*entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Get returns the value for key, or ok=false if the key is absent or its
// expiry has passed. An expired entry is evicted as a side effect.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		e.timer.Stop()
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl (<=0 means the default TTL). Any
// existing entry is replaced; its pending timer is stopped first so a stale
// expiration cannot delete the newer value.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.entries[key]; ok {
		old.timer.Stop()
	}
	e := &entry{value: value, expiresAt: c.now().Add(ttl)}
	e.timer = time.AfterFunc(ttl, func() { c.expire(key, e) })
	c.entries[key] = e
}

// expire removes key only if it still holds the entry the timer was armed
// for; a Set that raced the timer wins.
func (c *Cache) expire(key string, e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[key]; ok && cur == e {
		delete(c.entries, key)
	}
}

// Delete removes key and cancels its pending timer. Idempotent.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.timer.Stop()
		delete(c.entries, key)
	}
}

// Has reports whether key is present and unexpired.
func (c *Cache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Match reports whether key matches pattern. This is intentionally not a
// glob engine: a trailing "*" means prefix match, a leading "*" suffix
// match, both mean substring match, and a pattern without wildcards matches
// by literal containment. Cache keys contain colons and dots, so no other
// character is treated specially.
func Match(pattern, key string) bool {
	prefix := strings.HasSuffix(pattern, "*")
	suffix := strings.HasPrefix(pattern, "*")
	body := strings.TrimSuffix(strings.TrimPrefix(pattern, "*"), "*")
	switch {
	case prefix && suffix:
		return strings.Contains(key, body)
	case prefix:
		return strings.HasPrefix(key, body)
	case suffix:
		return strings.HasSuffix(key, body)
	default:
		return strings.Contains(key, pattern)
	}
}

// InvalidatePattern removes every key matching pattern under the Match
// rules and returns the removed keys, sorted.
func (c *Cache) InvalidatePattern(pattern string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var removed []string
	for k, e := range c.entries {
		if Match(pattern, k) {
			e.timer.Stop()
			delete(c.entries, k)
			removed = append(removed, k)
		}
	}
	sort.Strings(removed)
	return removed
}

// Keys returns a sorted snapshot of the unexpired keys.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	keys := make([]string, 0, len(c.entries))
	for k, e := range c.entries {
		if now.Before(e.expiresAt) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of stored entries, including any whose timer has
// not fired yet.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the current size and key snapshot.
func (c *Cache) Stats() Stats {
	keys := c.Keys()
	return Stats{Size: len(keys), Keys: keys}
}

// Clear cancels all pending timers and empties the store.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		e.timer.Stop()
	}
	c.entries = make(map[string]*entry)
}
