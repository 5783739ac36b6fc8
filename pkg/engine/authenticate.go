package engine

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/platinummonkey/warden/pkg/audit"
	"github.com/platinummonkey/warden/pkg/directory"
)

// authenticatorFunc is one strategy in the authentication chain. It returns
// (nil, nil) when the credential is not its kind or does not resolve to an
// identity; a non-nil error aborts the chain.
type authenticatorFunc func(ctx context.Context, cred directory.Credential) (*directory.Identity, error)

// Authenticate resolves a credential to an identity. Strategies are tried
// in fixed order — API key, bearer token, then username/password — and the
// first one producing a non-nil identity wins. Disabled identities never
// authenticate. A successful authentication emits a best-effort audit event
// carrying the method name and the caller's address.
func (e *Engine) Authenticate(ctx context.Context, cred directory.Credential, callerAddr string) (*directory.Identity, error) {
	for _, authenticate := range e.authenticators {
		identity, err := authenticate(ctx, cred)
		if err != nil {
			return nil, err
		}
		if identity == nil {
			continue
		}
		if !identity.Enabled {
			break
		}
		e.recordAuth(cred.AuthMethod(), "success")
		e.auditEvent(ctx, &audit.Event{
			EventType:  audit.EventTypeAuthSuccess,
			UserID:     identity.ID,
			Method:     cred.AuthMethod(),
			CallerAddr: callerAddr,
		})
		return identity, nil
	}

	e.recordAuth(cred.AuthMethod(), "failure")
	e.auditEvent(ctx, &audit.Event{
		EventType:  audit.EventTypeAuthFailure,
		Method:     cred.AuthMethod(),
		CallerAddr: callerAddr,
	})
	return nil, directory.ErrAuthenticationFailed
}

func (e *Engine) authenticateAPIKey(ctx context.Context, cred directory.Credential) (*directory.Identity, error) {
	keyCred, ok := cred.(directory.APIKeyCredential)
	if !ok {
		return nil, nil
	}
	key, err := e.LoadAPIKey(ctx, keyCred.ID)
	if err != nil {
		if errors.Is(err, directory.ErrAPIKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(key.Secret), []byte(keyCred.Secret)) != 1 {
		return nil, nil
	}
	owner, err := e.LoadUser(ctx, key.UserID)
	if err != nil {
		if errors.Is(err, directory.ErrIdentityNotFound) {
			// A key whose owner vanished is a malformed record, not an
			// authentication miss.
			return nil, directory.ErrBadRequest
		}
		return nil, err
	}
	return owner, nil
}

func (e *Engine) authenticateToken(ctx context.Context, cred directory.Credential) (*directory.Identity, error) {
	tokenCred, ok := cred.(directory.TokenCredential)
	if !ok {
		return nil, nil
	}
	userID, err := e.ValidateJWTToken(ctx, tokenCred.Token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil, nil
		}
		return nil, err
	}
	identity, err := e.LoadUser(ctx, userID)
	if err != nil {
		if errors.Is(err, directory.ErrIdentityNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return identity, nil
}

func (e *Engine) authenticatePassword(ctx context.Context, cred directory.Credential) (*directory.Identity, error) {
	passCred, ok := cred.(directory.PasswordCredential)
	if !ok {
		return nil, nil
	}
	identity, err := e.resolveLogin(ctx, passCred.Username)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, nil
	}
	if !directory.VerifyPassword(passCred.Password, identity.PasswordHash, identity.PasswordSalt) {
		return nil, nil
	}
	return identity, nil
}

// resolveLogin maps a login name onto an identity, trying the id itself
// first and then the alias keyspace.
func (e *Engine) resolveLogin(ctx context.Context, login string) (*directory.Identity, error) {
	identity, err := e.LoadUser(ctx, login)
	if err == nil {
		return identity, nil
	}
	if !errors.Is(err, directory.ErrIdentityNotFound) {
		return nil, err
	}
	alias, err := e.LoadAlias(ctx, login)
	if err != nil {
		if errors.Is(err, directory.ErrAliasNotFound) {
			return nil, nil
		}
		return nil, err
	}
	identity, err = e.LoadUser(ctx, alias.UserID)
	if err != nil {
		if errors.Is(err, directory.ErrIdentityNotFound) {
			return nil, directory.ErrBadRequest
		}
		return nil, err
	}
	return identity, nil
}

// Impersonation pairs an authenticated sponsor with the identity it acts
// for.
type Impersonation struct {
	Sponsor   *directory.Identity
	Sponsoree *directory.Identity
}

// AuthFor lets an authenticated member of the privileged systems group
// obtain a context impersonating a different, named identity without
// holding that identity's credential.
func (e *Engine) AuthFor(ctx context.Context, cred directory.Credential, sponsoreeID, callerAddr string) (*Impersonation, error) {
	sponsor, err := e.Authenticate(ctx, cred, callerAddr)
	if err != nil {
		return nil, err
	}

	group, err := e.LoadGroup(ctx, e.systemsGroup)
	if err != nil {
		if errors.Is(err, directory.ErrGroupNotFound) {
			return nil, directory.ErrNotPermitted
		}
		return nil, err
	}
	if !group.HasMember(sponsor.ID) {
		return nil, directory.ErrNotPermitted
	}

	sponsoree, err := e.LoadUser(ctx, sponsoreeID)
	if err != nil {
		return nil, err
	}

	e.auditEvent(ctx, &audit.Event{
		EventType:   audit.EventTypeAuthSponsor,
		UserID:      sponsor.ID,
		SponsoreeID: sponsoree.ID,
		Method:      cred.AuthMethod(),
		CallerAddr:  callerAddr,
	})
	return &Impersonation{Sponsor: sponsor, Sponsoree: sponsoree}, nil
}

// auditEvent records an event best-effort: failures are logged, never
// propagated, so audit trouble cannot change an authentication outcome.
func (e *Engine) auditEvent(ctx context.Context, event *audit.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = e.now()
	}
	if err := e.audit.Log(ctx, event); err != nil {
		e.log.WithError(err).Warn("audit event dropped")
	}
}

func (e *Engine) recordAuth(method, outcome string) {
	if e.metrics != nil {
		e.metrics.RecordAuthAttempt(method, outcome)
	}
}
