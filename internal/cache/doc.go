// Package cache memoizes fetched sheets by source URL for a bounded time.
// Concurrent misses for one URL share a single fetch. Failed fetches are
// never stored.
package cache
