package storage

import (
	"context"
	"errors"
)

// Errors returned by Backend implementations. Engine code matches on these
// with errors.Is and maps them onto the directory error taxonomy.
var (
	// ErrKeyNotFound means the key has no document.
	ErrKeyNotFound = errors.New("key not found")
	// ErrKeyExists means a conditional create collided with an existing key.
	ErrKeyExists = errors.New("key already exists")
	// ErrReadOnly means a mutating call reached a read-only backend.
	ErrReadOnly = errors.New("backend is read-only")
)

// Backend is the storage port every directory backend implements. Documents
// are opaque JSON blobs; keys are slash-separated paths from the KeySpace.
//
// Every call may block on network I/O. Backends do not retry internally and
// impose no timeouts of their own; callers bound calls via ctx.
type Backend interface {
	// Load returns the document stored at key, or ErrKeyNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Store writes the document at key, creating or overwriting it.
	Store(ctx context.Context, key string, doc []byte) error

	// Create writes the document at key only if the key does not already
	// exist, returning ErrKeyExists otherwise. The check-and-write must be
	// atomic on the backend, not a load-then-store sequence.
	Create(ctx context.Context, key string, doc []byte) error

	// Delete removes the document at key. Deleting an absent key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// ListKeysBelow returns every key under the given prefix.
	ListKeysBelow(ctx context.Context, prefix string) ([]string, error)
}

// HealthChecker is implemented by backends that can verify connectivity to
// their underlying store.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
