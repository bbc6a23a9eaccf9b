// Package cache implements the bounded, TTL-based item classification cache.
//
// DESIGN: The cache wraps a store.Store (capacity/LRU) and a Resolver (the
// upstream metadata client) behind one Lookup call:
//   - fresh entry in store          -> hit, no upstream call
//   - stale or missing entry        -> one coalesced upstream call per item
//   - resolver failure              -> error (caller decides; the router
//     fails open to passthrough), nothing cached
//
// The clock is injected so TTL behavior is testable without sleeping.
package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/embyfast/strm-gateway/internal/monitoring"
	"github.com/embyfast/strm-gateway/internal/store"
)

// Resolver fetches a classification for an item from upstream.
type Resolver interface {
	Resolve(ctx context.Context, itemID string) (store.Entry, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, itemID string) (store.Entry, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, itemID string) (store.Entry, error) {
	return f(ctx, itemID)
}

// ItemTypeCache caches item classifications with TTL and lookup coalescing.
type ItemTypeCache struct {
	store    store.Store
	resolver Resolver
	ttl      time.Duration
	now      func() time.Time
	metrics  *monitoring.MetricsCollector
	group    singleflight.Group
}

// Option configures an ItemTypeCache.
type Option func(*ItemTypeCache)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *ItemTypeCache) { c.now = now }
}

// WithMetrics records hit/miss counters.
func WithMetrics(m *monitoring.MetricsCollector) Option {
	return func(c *ItemTypeCache) { c.metrics = m }
}

// New creates an ItemTypeCache over the given store and resolver.
func New(st store.Store, resolver Resolver, ttl time.Duration, opts ...Option) *ItemTypeCache {
	c := &ItemTypeCache{
		store:    st,
		resolver: resolver,
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup returns the classification for an item, consulting upstream on miss.
// An entry past its TTL is treated as a miss and re-fetched. Concurrent
// lookups for the same uncached item make exactly one upstream call.
func (c *ItemTypeCache) Lookup(ctx context.Context, itemID string) (store.Entry, error) {
	if e, ok := c.store.Get(itemID); ok && c.fresh(e) {
		c.recordHit()
		return e, nil
	}
	c.recordMiss()

	v, err, _ := c.group.Do(itemID, func() (interface{}, error) {
		// Another caller may have refreshed the entry while we queued.
		if e, ok := c.store.Get(itemID); ok && c.fresh(e) {
			return e, nil
		}

		e, err := c.resolver.Resolve(ctx, itemID)
		if err != nil {
			return store.Entry{}, err
		}

		e.FetchedAt = c.now()
		if putErr := c.store.Put(itemID, e); putErr != nil {
			// A full or broken store must not block classification.
			return e, nil
		}
		return e, nil
	})
	if err != nil {
		return store.Entry{}, err
	}

	return v.(store.Entry), nil
}

// fresh reports whether the entry is within its TTL.
func (c *ItemTypeCache) fresh(e store.Entry) bool {
	return c.now().Sub(e.FetchedAt) < c.ttl
}

func (c *ItemTypeCache) recordHit() {
	if c.metrics != nil {
		c.metrics.RecordCacheHit()
	}
}

func (c *ItemTypeCache) recordMiss() {
	if c.metrics != nil {
		c.metrics.RecordCacheMiss()
	}
}
