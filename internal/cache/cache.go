// Package cache implements the TTL cache-aside layer in front of the
// health data source. It is process-wide mutable shared state: all
// mutation goes through the cache's own locking, and concurrent lookups
// of the same key share a single in-flight computation (single-flight).
package cache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ComputeFn produces the value for a key on a cache miss.
type ComputeFn func(ctx context.Context) (any, error)

// Stats is a point-in-time snapshot of cache effectiveness counters.
type Stats struct {
	Size   int    `json:"size"`
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// entry is one cached value, or an in-flight computation of one.
// ready is closed once the computation finishes; waiters then read
// value/err without further coordination because the fields are only
// written before the close.
type entry struct {
	value     any
	err       error
	expiresAt time.Time
	computing bool
	ready     chan struct{}
}

// MetricsCache is a TTL cache with single-flight de-duplication, lazy
// expiry and prefix invalidation.
type MetricsCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	hits    uint64
	misses  uint64
	logger  *slog.Logger
}

// New creates an empty MetricsCache.
// If logger is nil, a default logger will be used.
func New(logger *slog.Logger) *MetricsCache {
	if logger == nil {
		logger = slog.Default()
	}

	return &MetricsCache{
		entries: make(map[string]*entry),
		logger:  logger.With(slog.String("component", "metrics_cache")),
	}
}

// Get returns the cached value for key, computing it with fn on a miss.
// Expired entries are treated as misses and removed lazily. Concurrent
// callers for the same key wait for the single in-flight computation
// instead of issuing duplicate work; a failed computation is shared with
// the waiters but never cached. A value is also not cached when the
// computing caller's context is already done, so a timed-out lookup
// cannot leave a partial entry behind.
func (c *MetricsCache) Get(ctx context.Context, key string, ttl time.Duration, fn ComputeFn) (any, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if e.computing {
			ready := e.ready
			c.mu.Unlock()

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-ready:
			}

			c.mu.Lock()
			if e.err != nil {
				c.mu.Unlock()
				return nil, e.err
			}
			c.hits++
			value := e.value
			c.mu.Unlock()
			return value, nil
		}

		if time.Now().Before(e.expiresAt) {
			c.hits++
			value := e.value
			c.mu.Unlock()
			return value, nil
		}

		// Expired: drop and recompute.
		delete(c.entries, key)
	}

	c.misses++
	e := &entry{computing: true, ready: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	value, err := fn(ctx)

	c.mu.Lock()
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		e.err = err
		if cur, ok := c.entries[key]; ok && cur == e {
			delete(c.entries, key)
		}
	} else {
		e.value = value
		e.expiresAt = time.Now().Add(ttl)
		e.computing = false
	}
	close(e.ready)
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return value, nil
}

// Invalidate removes a single key. In-flight computations for the key
// finish for their waiters but do not repopulate the cache.
func (c *MetricsCache) Invalidate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	return true
}

// InvalidateByPrefix removes every key sharing the prefix and returns
// the number of entries dropped. Used after a quick action mutates a
// scope's cards to flush the scope and its ancestors in one sweep.
func (c *MetricsCache) InvalidateByPrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}

	if removed > 0 {
		c.logger.Debug("invalidated cache entries by prefix",
			slog.String("prefix", prefix),
			slog.Int("removed", removed))
	}

	return removed
}

// Clear removes every entry and returns the number dropped. Hit and miss
// counters are preserved.
func (c *MetricsCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := len(c.entries)
	c.entries = make(map[string]*entry)
	return removed
}

// Stats returns a snapshot of the cache counters.
func (c *MetricsCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Size:   len(c.entries),
		Hits:   c.hits,
		Misses: c.misses,
	}
}
