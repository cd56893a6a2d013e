// Package cache memoizes expensive values keyed by source identity.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sells-group/iqm-atlas/internal/metrics"
)

// Cache is a get-or-compute store with explicit invalidation.
type Cache[V any] interface {
	// GetOrCompute returns the cached value for key, computing and storing it
	// on a miss. Errors are returned to every waiter and never cached.
	GetOrCompute(ctx context.Context, key string, compute func(context.Context) (V, error)) (V, error)
	Invalidate(key string)
	InvalidateAll()
	Stats() Stats
}

// Stats contains cache performance statistics.
type Stats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// Memory is a concurrent-safe in-process Cache. Concurrent misses on one key
// share a single computation. With a zero TTL entries never expire; with a
// zero maxEntries the cache is unbounded, otherwise the least recently used
// entry is evicted.
type Memory[V any] struct {
	mu         sync.RWMutex
	entries    map[string]*entry[V]
	order      []string // LRU order: front=oldest, back=newest
	maxEntries int
	ttl        time.Duration
	group      singleflight.Group
	hits       atomic.Int64
	misses     atomic.Int64
	now        func() time.Time

	computeTimeout time.Duration
}

type entry[V any] struct {
	value     V
	createdAt time.Time
}

// NewMemory creates a Memory cache.
func NewMemory[V any](maxEntries int, ttl time.Duration) *Memory[V] {
	return &Memory[V]{
		entries:    make(map[string]*entry[V]),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// SetComputeTimeout bounds each shared computation. A zero timeout leaves it
// unbounded.
func (c *Memory[V]) SetComputeTimeout(d time.Duration) {
	c.computeTimeout = d
}

// Get returns the cached value and whether it was present and fresh.
func (c *Memory[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.expired(e) {
		delete(c.entries, key)
		c.removeFromOrder(key)
		var zero V
		return zero, false
	}

	c.removeFromOrder(key)
	c.order = append(c.order, key)
	return e.value, true
}

// Put stores a value, evicting the oldest entry if at capacity.
func (c *Memory[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = &entry[V]{value: value, createdAt: c.now()}
		c.removeFromOrder(key)
		c.order = append(c.order, key)
		return
	}

	for c.maxEntries > 0 && len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = &entry[V]{value: value, createdAt: c.now()}
	c.order = append(c.order, key)
}

// GetOrCompute implements Cache.
func (c *Memory[V]) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		c.hits.Add(1)
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return v, nil
	}
	c.misses.Add(1)
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	// The shared computation outlives the context of the caller that started
	// it; each caller stops waiting when its own context ends.
	ch := c.group.DoChan(key, func() (any, error) {
		// Another caller may have filled the entry while this one waited.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		cctx := context.WithoutCancel(ctx)
		if c.computeTimeout > 0 {
			var cancel context.CancelFunc
			cctx, cancel = context.WithTimeout(cctx, c.computeTimeout)
			defer cancel()
		}
		v, err := compute(cctx)
		if err != nil {
			return nil, err
		}
		c.Put(key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// Invalidate removes key. A computation already in flight for key is
// forgotten so the next caller starts a fresh one.
func (c *Memory[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.removeFromOrder(key)
	c.mu.Unlock()
	c.group.Forget(key)
}

// InvalidateAll empties the cache.
func (c *Memory[V]) InvalidateAll() {
	c.mu.Lock()
	keys := c.order
	c.entries = make(map[string]*entry[V])
	c.order = nil
	c.mu.Unlock()

	for _, k := range keys {
		c.group.Forget(k)
	}
}

// Stats implements Cache.
func (c *Memory[V]) Stats() Stats {
	c.mu.RLock()
	entries := len(c.entries)
	maxEntries := c.maxEntries
	c.mu.RUnlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Entries:    entries,
		MaxEntries: maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}

func (c *Memory[V]) expired(e *entry[V]) bool {
	return c.ttl > 0 && c.now().Sub(e.createdAt) > c.ttl
}

// removeFromOrder removes a key from the LRU order slice.
func (c *Memory[V]) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
