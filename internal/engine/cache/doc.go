// Package cache keeps computed aggregation results for a bounded time.
//
// A Store holds JSON entries with an absolute expiry. Three backends are
// provided: MemoryStore for a single process, FileStore for CLI invocations
// that should share results across runs, and RedisStore for several API
// servers sharing one cache. CachedAggregator wraps an aggregation behind a
// Store and collapses concurrent misses into a single computation.
package cache
