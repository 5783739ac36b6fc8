// Package engine implements the backend-agnostic directory engine: identity,
// group, API-key, alias, and tag lifecycle, credential authentication, the
// bearer-token lifecycle with revocation, and ACL loading for protected
// resources.
//
// The engine is built once against the storage backend port; only key
// construction and raw I/O differ per backend. Two invariants hold on every
// backend:
//
//   - Secondary-index writes are ordered to fail safe. Creating an API key,
//     alias, or tag validates the owner first, writes the primary record,
//     and only then updates the owner-side denormalized index. Deletion
//     removes the denormalized reference before the primary record and
//     tolerates a primary record that is already gone.
//   - Tag expiration is checked on every read path. A resolve that finds an
//     expired tag removes it from both indices and reports not found,
//     exactly as a sweep would.
//
// The engine never retries: backend I/O failures surface as
// directory.ServiceUnavailableError and retry policy belongs to the caller.
// Calls block on backend I/O; callers bound them via ctx at the transport
// level.
package engine
