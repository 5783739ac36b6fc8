package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/warden/pkg/access"
)

func TestGetACLForAbsentResource(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	acl, err := f.engine.GetACLFor(ctx, "services/payments")
	require.NoError(t, err)
	require.NotNil(t, acl)
	assert.Empty(t, acl.Entries)

	// An empty list denies everyone.
	assert.False(t, acl.CanUser("alice", nil, "read"))
}

func TestStoreAndEvaluateACL(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	l := &access.List{}
	l.Deny("mallory", "write")
	doc := l.Permit("alice", "read", "write")
	require.NoError(t, f.engine.StoreACL(ctx, "services/payments", doc))

	loaded, err := f.engine.GetACLFor(ctx, "services/payments")
	require.NoError(t, err)
	require.Len(t, loaded.Entries, 2)

	assert.True(t, loaded.CanUser("alice", nil, "read"))
	assert.True(t, loaded.CanUser("alice", nil, "WRITE"))
	assert.False(t, loaded.CanUser("mallory", nil, "write"))
	assert.False(t, loaded.CanUser("bob", nil, "read"))
}

func TestCheckAccess(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	l := &access.List{}
	doc := l.Permit("ops", "restart")
	require.NoError(t, f.engine.StoreACL(ctx, "hosts/web-01", doc))

	ok, err := f.engine.CheckAccess(ctx, "hosts/web-01", "alice", []string{"ops"}, "restart")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.engine.CheckAccess(ctx, "hosts/web-01", "alice", nil, "restart")
	require.NoError(t, err)
	assert.False(t, ok)

	// A resource with no ACL denies.
	ok, err = f.engine.CheckAccess(ctx, "hosts/web-02", "alice", []string{"ops"}, "restart")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckAccessOwner(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	l := &access.List{}
	l.SetOwner("alice")
	doc := l.Permit(access.SubjectOwner, "admin")
	require.NoError(t, f.engine.StoreACL(ctx, "services/payments", doc))

	ok, err := f.engine.CheckAccess(ctx, "services/payments", "alice", nil, "admin")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.engine.CheckAccess(ctx, "services/payments", "bob", nil, "admin")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreACLMutationRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	l := &access.List{}
	require.NoError(t, f.engine.StoreACL(ctx, "svc", l.Permit("alice", "read")))

	// Load, mutate, store back.
	loaded, err := f.engine.GetACLFor(ctx, "svc")
	require.NoError(t, err)
	require.NoError(t, f.engine.StoreACL(ctx, "svc", loaded.Clear("alice")))

	final, err := f.engine.GetACLFor(ctx, "svc")
	require.NoError(t, err)
	assert.Empty(t, final.Entries)
	assert.False(t, final.CanUser("alice", nil, "read"))
}
