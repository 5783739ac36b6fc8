// Package storage defines the backend storage port the directory engine is
// built against, together with the key-path layout shared by every writable
// backend and the in-process document backend.
//
// # The port
//
// A Backend is a key→document store: Load, Store, Create, Delete, and prefix
// enumeration via ListKeysBelow. Create is the conditional write the engine
// relies on to deduplicate concurrent creation of the same id; a backend
// whose native write is an unconditional overwrite must supply a real
// existence check here, not a load-then-store sequence.
//
// # Backends
//
//   - MemoryBackend (this package): the whole directory in one in-process
//     map guarded by a single lock. Strongest read-after-write consistency,
//     weakest durability.
//   - storage/s3: each key is an object path in one bucket; listing uses
//     prefix pagination; Create uses a conditional put.
//   - storage/zk: each key is a znode path; Store auto-creates missing
//     parents; reads are strongly consistent so no cache is layered on top.
//   - storage/extidp: a read-only adapter over an external identity
//     provider; every mutating call fails with ErrReadOnly.
//
// # Caching
//
// NewCached wraps a Backend with a read-through cache for configured key
// prefixes. It is used in front of the higher-latency backends (bucket,
// external provider); one process's write can be invisible to another
// process's cache until the entry ages out.
package storage
