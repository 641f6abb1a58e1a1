// Package cache puts a two-tier read-through cache in front of a history.Source.
//
// The first tier is an in-process expirable LRU. The second tier is Redis,
// shared between replicas, storing records as JSON under
// "<prefix>section:<id>". Unknown sections are cached too (negative caching)
// with their own, usually shorter, TTL so repeated requests for a missing
// section do not reach a remote source.
//
// # Failure Handling
//
// Redis is optional. A nil client disables the second tier, and Redis errors
// are counted and logged but never fail a lookup: the cache falls through to
// the wrapped source. Errors from the wrapped source are returned unchanged
// and are not cached.
//
// # Warming
//
// Warm resolves a list of sections concurrently with a bounded errgroup.
// cmd/hearth-docs runs it on startup and on the configured cron schedule.
//
// # Usage
//
//	c := cache.New(githubSource, redisClient, cache.DefaultConfig(),
//		cache.WithRecorder(metrics),
//		cache.WithLogger(logger),
//	)
//	watcher := history.NewWatcher(c)
package cache
