package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/warden/pkg/directory"
)

func TestCreateGroup(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	created, err := f.engine.CreateGroup(ctx, "admins", "Administrators", map[string]string{"tier": "1"})
	require.NoError(t, err)
	assert.Equal(t, "admins", created.ID)

	loaded, err := f.engine.LoadGroup(ctx, "admins")
	require.NoError(t, err)
	assert.Equal(t, "Administrators", loaded.Name)
	assert.Equal(t, "1", loaded.Data["tier"])

	_, err = f.engine.CreateGroup(ctx, "admins", "Again", nil)
	assert.ErrorIs(t, err, directory.ErrGroupExists)
}

func TestLoadGroupNotFound(t *testing.T) {
	f := newTestEngine(t)
	_, err := f.engine.LoadGroup(context.Background(), "ghost")
	assert.ErrorIs(t, err, directory.ErrGroupNotFound)
}

func TestAddUserToGroup(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	_, err := f.engine.CreateUser(ctx, "alice", "", nil)
	require.NoError(t, err)
	_, err = f.engine.CreateGroup(ctx, "admins", "Administrators", nil)
	require.NoError(t, err)

	require.NoError(t, f.engine.AddUserToGroup(ctx, "admins", "alice"))
	// Adding an existing member is idempotent.
	require.NoError(t, f.engine.AddUserToGroup(ctx, "admins", "alice"))

	group, err := f.engine.LoadGroup(ctx, "admins")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, group.Members)
}

func TestAddUserToGroupValidatesUser(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	_, err := f.engine.CreateGroup(ctx, "admins", "Administrators", nil)
	require.NoError(t, err)

	err = f.engine.AddUserToGroup(ctx, "admins", "ghost")
	assert.ErrorIs(t, err, directory.ErrIdentityNotFound)

	group, err := f.engine.LoadGroup(ctx, "admins")
	require.NoError(t, err)
	assert.Empty(t, group.Members, "rejected membership must not be written")
}

func TestRemoveUserFromGroup(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	_, err := f.engine.CreateUser(ctx, "alice", "", nil)
	require.NoError(t, err)
	_, err = f.engine.CreateGroup(ctx, "admins", "Administrators", nil)
	require.NoError(t, err)
	require.NoError(t, f.engine.AddUserToGroup(ctx, "admins", "alice"))

	require.NoError(t, f.engine.RemoveUserFromGroup(ctx, "admins", "alice"))
	group, err := f.engine.LoadGroup(ctx, "admins")
	require.NoError(t, err)
	assert.Empty(t, group.Members)

	// Removing a non-member is a no-op.
	require.NoError(t, f.engine.RemoveUserFromGroup(ctx, "admins", "bob"))

	assert.ErrorIs(t, f.engine.RemoveUserFromGroup(ctx, "ghost", "alice"), directory.ErrGroupNotFound)
}

func TestGroupsForUser(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	_, err := f.engine.CreateUser(ctx, "alice", "", nil)
	require.NoError(t, err)
	for _, id := range []string{"admins", "auditors", "users"} {
		_, err := f.engine.CreateGroup(ctx, id, id, nil)
		require.NoError(t, err)
	}
	require.NoError(t, f.engine.AddUserToGroup(ctx, "admins", "alice"))
	require.NoError(t, f.engine.AddUserToGroup(ctx, "users", "alice"))

	groups, err := f.engine.GroupsForUser(ctx, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"admins", "users"}, groups)

	groups, err = f.engine.GroupsForUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, groups)
}
