package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/warden/pkg/audit"
	"github.com/platinummonkey/warden/pkg/directory"
)

func TestAuthenticatePassword(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	_, err := f.engine.CreateUser(ctx, "alice", "hunter2", nil)
	require.NoError(t, err)

	identity, err := f.engine.Authenticate(ctx, directory.PasswordCredential{Username: "alice", Password: "hunter2"}, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.ID)

	events := f.audit.byType(audit.EventTypeAuthSuccess)
	require.Len(t, events, 1)
	assert.Equal(t, "alice", events[0].UserID)
	assert.Equal(t, "password", events[0].Method)
	assert.Equal(t, "10.0.0.1", events[0].CallerAddr)
}

func TestAuthenticatePasswordWrong(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	_, err := f.engine.CreateUser(ctx, "alice", "hunter2", nil)
	require.NoError(t, err)

	_, err = f.engine.Authenticate(ctx, directory.PasswordCredential{Username: "alice", Password: "wrong"}, "")
	assert.ErrorIs(t, err, directory.ErrAuthenticationFailed)

	events := f.audit.byType(audit.EventTypeAuthFailure)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].UserID)
}

func TestAuthenticatePasswordViaAlias(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	_, err := f.engine.CreateUser(ctx, "alice", "hunter2", nil)
	require.NoError(t, err)
	_, err = f.engine.AddAlias(ctx, "alice", "alice@example.com")
	require.NoError(t, err)

	identity, err := f.engine.Authenticate(ctx, directory.PasswordCredential{Username: "alice@example.com", Password: "hunter2"}, "")
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.ID)
}

func TestAuthenticateAliasToMissingUser(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	_, err := f.engine.CreateUser(ctx, "alice", "hunter2", nil)
	require.NoError(t, err)
	_, err = f.engine.AddAlias(ctx, "alice", "alice@example.com")
	require.NoError(t, err)

	// Corrupt the record: the alias now points at a missing identity.
	require.NoError(t, f.backend.Delete(ctx, f.engine.Keys().User("alice")))

	_, err = f.engine.Authenticate(ctx, directory.PasswordCredential{Username: "alice@example.com", Password: "hunter2"}, "")
	assert.ErrorIs(t, err, directory.ErrBadRequest)
}

func TestAuthenticateAPIKey(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	_, err := f.engine.CreateUser(ctx, "alice", "", nil)
	require.NoError(t, err)
	key, err := f.engine.CreateAPIKey(ctx, "alice")
	require.NoError(t, err)

	identity, err := f.engine.Authenticate(ctx, directory.APIKeyCredential{ID: key.ID, Secret: key.Secret}, "")
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.ID)

	// Wrong secret fails even with a valid key id.
	_, err = f.engine.Authenticate(ctx, directory.APIKeyCredential{ID: key.ID, Secret: "wrong"}, "")
	assert.ErrorIs(t, err, directory.ErrAuthenticationFailed)

	// Unknown key id fails.
	_, err = f.engine.Authenticate(ctx, directory.APIKeyCredential{ID: "missing", Secret: key.Secret}, "")
	assert.ErrorIs(t, err, directory.ErrAuthenticationFailed)
}

func TestAuthenticateAPIKeyOrphaned(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	_, err := f.engine.CreateUser(ctx, "alice", "", nil)
	require.NoError(t, err)
	key, err := f.engine.CreateAPIKey(ctx, "alice")
	require.NoError(t, err)

	// Remove the identity record while leaving the key's primary record.
	require.NoError(t, f.backend.Delete(ctx, f.engine.Keys().User("alice")))

	_, err = f.engine.Authenticate(ctx, directory.APIKeyCredential{ID: key.ID, Secret: key.Secret}, "")
	assert.ErrorIs(t, err, directory.ErrBadRequest)
}

func TestAuthenticateToken(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	_, err := f.engine.CreateUser(ctx, "alice", "", nil)
	require.NoError(t, err)
	token, err := f.engine.CreateJWTToken(ctx, "alice")
	require.NoError(t, err)

	identity, err := f.engine.Authenticate(ctx, directory.TokenCredential{Token: token}, "")
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.ID)

	// A revoked token no longer authenticates.
	require.NoError(t, f.engine.InvalidateJWTToken(ctx, token))
	_, err = f.engine.Authenticate(ctx, directory.TokenCredential{Token: token}, "")
	assert.ErrorIs(t, err, directory.ErrAuthenticationFailed)
}

func TestAuthenticateDisabledIdentity(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	_, err := f.engine.CreateUser(ctx, "alice", "hunter2", nil)
	require.NoError(t, err)
	key, err := f.engine.CreateAPIKey(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, f.engine.SetUserEnabled(ctx, "alice", false))

	_, err = f.engine.Authenticate(ctx, directory.PasswordCredential{Username: "alice", Password: "hunter2"}, "")
	assert.ErrorIs(t, err, directory.ErrAuthenticationFailed)

	_, err = f.engine.Authenticate(ctx, directory.APIKeyCredential{ID: key.ID, Secret: key.Secret}, "")
	assert.ErrorIs(t, err, directory.ErrAuthenticationFailed)
}

func TestAuthFor(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	_, err := f.engine.CreateUser(ctx, "deploy-bot", "bot-password", nil)
	require.NoError(t, err)
	_, err = f.engine.CreateUser(ctx, "alice", "", nil)
	require.NoError(t, err)
	_, err = f.engine.CreateGroup(ctx, DefaultSystemsGroup, "Systems", nil)
	require.NoError(t, err)
	require.NoError(t, f.engine.AddUserToGroup(ctx, DefaultSystemsGroup, "deploy-bot"))

	imp, err := f.engine.AuthFor(ctx, directory.PasswordCredential{Username: "deploy-bot", Password: "bot-password"}, "alice", "10.0.0.2")
	require.NoError(t, err)
	assert.Equal(t, "deploy-bot", imp.Sponsor.ID)
	assert.Equal(t, "alice", imp.Sponsoree.ID)

	events := f.audit.byType(audit.EventTypeAuthSponsor)
	require.Len(t, events, 1)
	assert.Equal(t, "deploy-bot", events[0].UserID)
	assert.Equal(t, "alice", events[0].SponsoreeID)
}

func TestAuthForRequiresSystemsMembership(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	_, err := f.engine.CreateUser(ctx, "mallory", "password", nil)
	require.NoError(t, err)
	_, err = f.engine.CreateUser(ctx, "alice", "", nil)
	require.NoError(t, err)
	_, err = f.engine.CreateGroup(ctx, DefaultSystemsGroup, "Systems", nil)
	require.NoError(t, err)

	_, err = f.engine.AuthFor(ctx, directory.PasswordCredential{Username: "mallory", Password: "password"}, "alice", "")
	assert.ErrorIs(t, err, directory.ErrNotPermitted)
}

func TestAuthForWithoutSystemsGroup(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	_, err := f.engine.CreateUser(ctx, "deploy-bot", "password", nil)
	require.NoError(t, err)

	// No systems group exists at all: impersonation is refused.
	_, err = f.engine.AuthFor(ctx, directory.PasswordCredential{Username: "deploy-bot", Password: "password"}, "anyone", "")
	assert.ErrorIs(t, err, directory.ErrNotPermitted)
}

func TestAuthForCustomSystemsGroup(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t, WithSystemsGroup("platform"))

	_, err := f.engine.CreateUser(ctx, "deploy-bot", "password", nil)
	require.NoError(t, err)
	_, err = f.engine.CreateUser(ctx, "alice", "", nil)
	require.NoError(t, err)
	_, err = f.engine.CreateGroup(ctx, "platform", "Platform", nil)
	require.NoError(t, err)
	require.NoError(t, f.engine.AddUserToGroup(ctx, "platform", "deploy-bot"))

	imp, err := f.engine.AuthFor(ctx, directory.PasswordCredential{Username: "deploy-bot", Password: "password"}, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, "alice", imp.Sponsoree.ID)
}

func TestAuthForSponsoreeMissing(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	_, err := f.engine.CreateUser(ctx, "deploy-bot", "password", nil)
	require.NoError(t, err)
	_, err = f.engine.CreateGroup(ctx, DefaultSystemsGroup, "Systems", nil)
	require.NoError(t, err)
	require.NoError(t, f.engine.AddUserToGroup(ctx, DefaultSystemsGroup, "deploy-bot"))

	_, err = f.engine.AuthFor(ctx, directory.PasswordCredential{Username: "deploy-bot", Password: "password"}, "ghost", "")
	assert.ErrorIs(t, err, directory.ErrIdentityNotFound)
}
