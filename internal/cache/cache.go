package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Recorder receives hit/miss notifications. *metrics.Metrics satisfies it.
type Recorder interface {
	CacheHit(cache string)
	CacheMiss(cache string)
}

// Entry is a cached value and the time it was fetched.
type Entry[V any] struct {
	Value     V
	FetchedAt time.Time
}

// FetchFunc loads a fresh value on a miss.
type FetchFunc[V any] func(ctx context.Context) (V, error)

// TTLCache holds one entry per key and refetches once an entry is ttl old.
// Concurrent misses on the same key share a single fetch. Failed fetches are
// not stored, so the next call retries.
type TTLCache[V any] struct {
	name     string
	ttl      time.Duration
	recorder Recorder

	mu      sync.RWMutex
	entries map[string]Entry[V]
	flights singleflight.Group
}

// New creates an empty cache. recorder may be nil.
func New[V any](name string, ttl time.Duration, recorder Recorder) *TTLCache[V] {
	return &TTLCache[V]{
		name:     name,
		ttl:      ttl,
		recorder: recorder,
		entries:  make(map[string]Entry[V]),
	}
}

// TTL returns the configured time-to-live.
func (c *TTLCache[V]) TTL() time.Duration { return c.ttl }

// Get returns the entry for key, calling fetch when the key is missing or
// now - FetchedAt >= ttl. The second return reports whether fetch ran for this call.
func (c *TTLCache[V]) Get(ctx context.Context, key string, now time.Time, fetch FetchFunc[V]) (Entry[V], bool, error) {
	if e, ok := c.fresh(key, now); ok {
		c.hit()
		return e, false, nil
	}

	fetched := false
	ch := c.flights.DoChan(key, func() (any, error) {
		// Another flight may have stored a value between fresh() and DoChan().
		if e, ok := c.fresh(key, now); ok {
			return e, nil
		}

		fetched = true
		// The fetch is shared, so one waiter leaving must not fail the others.
		val, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		e := Entry[V]{Value: val, FetchedAt: now}
		c.mu.Lock()
		c.entries[key] = e
		c.mu.Unlock()
		return e, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return Entry[V]{}, false, ctx.Err()
	case res = <-ch:
	}
	v, err := res.Val, res.Err
	if err != nil {
		c.miss()
		return Entry[V]{}, fetched, err
	}

	if fetched {
		c.miss()
	} else {
		c.hit()
	}
	return v.(Entry[V]), fetched, nil
}

// Peek returns the stored entry without checking its age.
func (c *TTLCache[V]) Peek(key string) (Entry[V], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// Reset drops every entry and returns how many were removed.
func (c *TTLCache[V]) Reset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := len(c.entries)
	c.entries = make(map[string]Entry[V])
	return count
}

// Len returns the number of stored entries.
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *TTLCache[V]) fresh(key string, now time.Time) (Entry[V], bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || now.Sub(e.FetchedAt) >= c.ttl {
		return Entry[V]{}, false
	}
	return e, true
}

func (c *TTLCache[V]) hit() {
	if c.recorder != nil {
		c.recorder.CacheHit(c.name)
	}
}

func (c *TTLCache[V]) miss() {
	if c.recorder != nil {
		c.recorder.CacheMiss(c.name)
	}
}

// Key joins parts into a composite cache key.
func Key(parts ...string) string {
	return strings.Join(parts, "/")
}
