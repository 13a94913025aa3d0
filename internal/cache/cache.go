package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cpsfl/scorecard/internal/ingest"
)

// Entry is a fetched sheet together with the time it was stored.
type Entry struct {
	Sheet    *ingest.RawSheet
	StoredAt time.Time
}

// Cache is a thread-safe TTL memo of RawSheets keyed by Fetcher.URL.
// A TTL of zero disables storage; Get then always fetches, still coalescing
// concurrent callers.
type Cache struct {
	mu    sync.RWMutex
	data  map[string]*Entry
	ttl   time.Duration
	now   func() time.Time // injectable for deterministic tests
	group singleflight.Group
}

// New creates a Cache with the given TTL.
func New(ttl time.Duration) *Cache {
	return &Cache{
		data: make(map[string]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get returns the cached sheet for f.URL() when it is younger than the TTL,
// otherwise fetches it. refresh skips the lookup and replaces the entry.
// Errors from the fetcher are returned unchanged and leave any previous
// entry untouched. A caller whose ctx ends first gets ctx.Err() while the
// fetch carries on for the other callers sharing it.
func (c *Cache) Get(ctx context.Context, f ingest.Fetcher, refresh bool) (*ingest.RawSheet, error) {
	key := f.URL()
	if !refresh {
		if e, ok := c.fresh(key); ok {
			return e.Sheet, nil
		}
	}

	flight := key
	if refresh {
		flight = "refresh\x00" + key
	}
	// The flight outlives any one caller's cancellation; the fetcher's own
	// timeout bounds it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flight, func() (any, error) {
		sheet, err := f.Fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.put(key, sheet)
		return sheet, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			slog.Debug("cache: coalesced fetch", "url", key)
		}
		return res.Val.(*ingest.RawSheet), nil
	}
}

// Count returns the number of entries currently held, including stale ones.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *Cache) fresh(key string) (*Entry, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.data[key]
	if !ok || !e.StoredAt.After(c.now().Add(-c.ttl)) {
		return nil, false
	}
	return e, true
}

func (c *Cache) put(key string, sheet *ingest.RawSheet) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = &Entry{Sheet: sheet, StoredAt: c.now()}
}

// Evict removes entries whose StoredAt is older than now minus TTL.
// It returns the number of entries removed.
func (c *Cache) Evict(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := now.Add(-c.ttl)
	removed := 0
	for key, e := range c.data {
		if !e.StoredAt.After(cutoff) {
			delete(c.data, key)
			removed++
		}
	}
	return removed
}

// Run starts the background eviction loop, ticking at half the TTL (minimum
// one second). It returns immediately when the TTL is zero and otherwise
// blocks until ctx is cancelled.
func (c *Cache) Run(ctx context.Context) {
	if c.ttl <= 0 {
		return
	}
	interval := max(c.ttl/2, time.Second)
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := c.Evict(now); n > 0 {
				slog.Debug("cache: evicted stale sheets", "count", n, "remaining", c.Count())
			}
		}
	}
}
