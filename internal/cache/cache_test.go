package cache

// Cache Tests - TTL, coalescing, and failure propagation.
//
// The clock is injected so TTL expiry is tested without sleeping, and the
// resolver is a counting fake so upstream call counts are exact.

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embyfast/strm-gateway/internal/store"
)

// countingResolver counts Resolve calls and can block or fail on demand.
type countingResolver struct {
	calls atomic.Int64
	entry store.Entry
	err   error
	gate  chan struct{} // when set, Resolve blocks until closed
}

func (r *countingResolver) Resolve(ctx context.Context, itemID string) (store.Entry, error) {
	r.calls.Add(1)
	if r.gate != nil {
		<-r.gate
	}
	if r.err != nil {
		return store.Entry{}, r.err
	}
	return r.entry, nil
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, resolver Resolver, ttl time.Duration, clock *fakeClock) *ItemTypeCache {
	t.Helper()
	st, err := store.NewMemoryStore(16)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st, resolver, ttl, WithClock(clock.Now))
}

// TestCache_MissThenHit verifies a miss fetches once and a hit is free.
func TestCache_MissThenHit(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	resolver := &countingResolver{entry: store.Entry{IsStrm: true, StreamURL: "http://s/x.ts"}}
	c := newTestCache(t, resolver, 5*time.Minute, clock)

	e, err := c.Lookup(context.Background(), "item1")
	require.NoError(t, err)
	assert.True(t, e.IsStrm)
	assert.Equal(t, int64(1), resolver.calls.Load())

	e, err = c.Lookup(context.Background(), "item1")
	require.NoError(t, err)
	assert.True(t, e.IsStrm)
	assert.Equal(t, int64(1), resolver.calls.Load(), "hit must not call upstream")
}

// TestCache_TTLExpiry verifies an entry past TTL triggers exactly one
// re-fetch on next access.
func TestCache_TTLExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	resolver := &countingResolver{entry: store.Entry{IsStrm: false}}
	c := newTestCache(t, resolver, 5*time.Minute, clock)

	_, err := c.Lookup(context.Background(), "item1")
	require.NoError(t, err)
	require.Equal(t, int64(1), resolver.calls.Load())

	// Just inside the TTL: still a hit.
	clock.Advance(5*time.Minute - time.Second)
	_, err = c.Lookup(context.Background(), "item1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), resolver.calls.Load())

	// Past the TTL: exactly one re-fetch.
	clock.Advance(2 * time.Second)
	_, err = c.Lookup(context.Background(), "item1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), resolver.calls.Load())

	_, err = c.Lookup(context.Background(), "item1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), resolver.calls.Load(), "re-fetch must refresh the entry")
}

// TestCache_CoalescesConcurrentLookups verifies N concurrent lookups for the
// same uncached item make exactly one upstream call.
func TestCache_CoalescesConcurrentLookups(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	resolver := &countingResolver{
		entry: store.Entry{IsStrm: true},
		gate:  make(chan struct{}),
	}
	c := newTestCache(t, resolver, 5*time.Minute, clock)

	const n = 32
	var wg sync.WaitGroup
	var started sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		started.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Done()
			_, errs[i] = c.Lookup(context.Background(), "item1")
		}(i)
	}

	// Release the resolver only after every lookup is in flight.
	started.Wait()
	time.Sleep(10 * time.Millisecond)
	close(resolver.gate)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
	}
	assert.Equal(t, int64(1), resolver.calls.Load(), "concurrent misses must coalesce")
}

// TestCache_ResolverErrorNotCached verifies failures propagate and are
// retried on the next lookup.
func TestCache_ResolverErrorNotCached(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	resolver := &countingResolver{err: errors.New("upstream down")}
	c := newTestCache(t, resolver, 5*time.Minute, clock)

	_, err := c.Lookup(context.Background(), "item1")
	require.Error(t, err)

	resolver.err = nil
	resolver.entry = store.Entry{IsStrm: true}

	e, err := c.Lookup(context.Background(), "item1")
	require.NoError(t, err)
	assert.True(t, e.IsStrm)
	assert.Equal(t, int64(2), resolver.calls.Load())
}

// TestCache_DistinctItemsFetchSeparately verifies per-item keying.
func TestCache_DistinctItemsFetchSeparately(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	resolver := &countingResolver{entry: store.Entry{IsStrm: true}}
	c := newTestCache(t, resolver, 5*time.Minute, clock)

	_, err := c.Lookup(context.Background(), "item1")
	require.NoError(t, err)
	_, err = c.Lookup(context.Background(), "item2")
	require.NoError(t, err)

	assert.Equal(t, int64(2), resolver.calls.Load())
}
