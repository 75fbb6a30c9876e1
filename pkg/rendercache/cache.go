// Package rendercache provides a bounded LRU cache for completed render
// outcomes, keyed by a caller-supplied fingerprint with a per-entry TTL.
package rendercache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/user/animrender/pkg/render"
)

const (
	// DefaultMaxEntries bounds the cache size.
	DefaultMaxEntries = 32
	// DefaultTTL is the default entry lifetime.
	DefaultTTL = 15 * time.Minute
)

type entry struct {
	outcome   render.Outcome
	createdAt time.Time
}

// Cache is a thread-safe LRU with TTL expiry checked at read time.
// Concurrent misses on the same key may both compute; the last writer wins.
type Cache struct {
	entries *lru.Cache[string, entry]
	ttl     time.Duration
	now     func() time.Time
}

// Option customizes a Cache.
type Option func(*Cache)

// WithTTL overrides the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache with the given capacity. maxEntries <= 0 selects
// DefaultMaxEntries.
func New(maxEntries int, opts ...Option) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	c := &Cache{
		ttl: DefaultTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	// Capacity is positive, so construction cannot fail.
	c.entries, _ = lru.New[string, entry](maxEntries)
	return c
}

// Get returns the cached outcome for key if present and not expired.
// A hit refreshes recency; an expired entry is removed.
func (c *Cache) Get(key string) (render.Outcome, bool) {
	e, ok := c.entries.Get(key)
	if !ok {
		return render.Outcome{}, false
	}
	if c.now().Sub(e.createdAt) >= c.ttl {
		c.entries.Remove(key)
		return render.Outcome{}, false
	}
	return e.outcome, true
}

// Set inserts or overwrites the outcome for key, evicting the least
// recently used entry when the cache is full.
func (c *Cache) Set(key string, outcome render.Outcome) {
	c.entries.Add(key, entry{outcome: outcome, createdAt: c.now()})
}

// Len returns the number of live and expired entries currently held.
func (c *Cache) Len() int {
	return c.entries.Len()
}
