package directory

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the directory engine. The transport boundary
// maps them onto not-found, conflict, client-error, and unauthorized
// responses; none of them are retried inside the engine.
var (
	ErrIdentityExists   = errors.New("identity already exists")
	ErrIdentityNotFound = errors.New("identity does not exist")
	ErrGroupExists      = errors.New("group already exists")
	ErrGroupNotFound    = errors.New("group does not exist")
	ErrAliasExists      = errors.New("alias already exists")
	ErrAliasNotFound    = errors.New("alias does not exist")
	ErrAPIKeyNotFound   = errors.New("api key does not exist")
	ErrTagNotFound      = errors.New("tag does not exist")

	// ErrBadRequest marks a record that references a missing owner, such as
	// an API key whose user has been deleted out from under it.
	ErrBadRequest = errors.New("record references a missing owner")

	// ErrAuthenticationFailed means no authenticator in the chain produced
	// an identity for the presented credential.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrNotPermitted means the caller is authenticated but lacks the
	// privilege the operation requires.
	ErrNotPermitted = errors.New("operation not permitted")
)

// ServiceUnavailableError wraps a backend I/O failure. It is retryable by the
// caller; the engine never retries internally.
type ServiceUnavailableError struct {
	Op  string
	Err error
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("service unavailable: %s: %v", e.Op, e.Err)
}

func (e *ServiceUnavailableError) Unwrap() error { return e.Err }

// Unavailable wraps err as a ServiceUnavailableError for the named operation.
func Unavailable(op string, err error) error {
	return &ServiceUnavailableError{Op: op, Err: err}
}
