// Package access implements the access-control-list policy engine shared by
// every protected resource.
//
// A List is an optional owner plus an ordered sequence of Entries. Evaluation
// is deterministic: entries are scanned in insertion order and the first entry
// whose subject matches the principal and whose operation set contains the
// requested operation decides the outcome. If no entry applies the result is a
// deny.
//
// Two sentinel subjects are matched by rule rather than by literal id:
// SubjectAnyUser applies to every principal, and SubjectOwner applies only
// when the principal is the list's owner.
//
// The package is pure: it performs no storage I/O. Every mutating method
// returns the updated canonical JSON form, and the owning store is
// responsible for persisting it.
package access
