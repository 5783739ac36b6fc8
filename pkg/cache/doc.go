// Package cache provides one cache abstraction with pluggable eviction,
// selected per storage backend by its latency and consistency needs.
//
// Three implementations exist: ShardedTTL (independently-locked partitions,
// entries evicted purely by age) sits in front of the external identity
// provider; Capped (fixed-capacity expirable LRU) bounds the memory of the
// bucket-backed adapter; Redis shares one cache across processes.
//
// All implementations are safe for concurrent use. None of them give
// read-your-own-writes across processes: a write in one process can be
// invisible to another process's cache until the entry ages out.
package cache
