package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/warden/pkg/directory"
)

func TestCreateAndResolveTag(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	_, err := f.engine.CreateUser(ctx, "alice", "", nil)
	require.NoError(t, err)

	tag, err := f.engine.CreateTag(ctx, "alice", "passwordReset", 15*time.Minute, map[string]string{"channel": "email"})
	require.NoError(t, err)
	assert.NotEmpty(t, tag.ID)
	assert.Equal(t, f.clock.Now().Add(15*time.Minute).Unix(), tag.ExpireEpochSeconds)

	byID, err := f.engine.ResolveTagByID(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "email", byID.Data["channel"])

	byOwner, err := f.engine.ResolveTagByOwnerAndType(ctx, "alice", "passwordReset")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, byOwner.ID, "both indices resolve to the same record")
}

func TestCreateTagRequiresOwner(t *testing.T) {
	f := newTestEngine(t)
	_, err := f.engine.CreateTag(context.Background(), "ghost", "reset", time.Minute, nil)
	assert.ErrorIs(t, err, directory.ErrIdentityNotFound)
}

func TestResolveTagLazyExpiry(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	_, err := f.engine.CreateUser(ctx, "alice", "", nil)
	require.NoError(t, err)
	tag, err := f.engine.CreateTag(ctx, "alice", "reset", 10*time.Minute, nil)
	require.NoError(t, err)

	f.clock.Advance(11 * time.Minute)

	_, err = f.engine.ResolveTagByID(ctx, tag.ID)
	assert.ErrorIs(t, err, directory.ErrTagNotFound)

	// The expired read removed both index entries.
	_, err = f.engine.ResolveTagByOwnerAndType(ctx, "alice", "reset")
	assert.ErrorIs(t, err, directory.ErrTagNotFound)
	_, err = f.backend.Load(ctx, f.engine.Keys().TagByID(tag.ID))
	assert.Error(t, err)
}

func TestCreateTagReplacesOwnerSlot(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	_, err := f.engine.CreateUser(ctx, "alice", "", nil)
	require.NoError(t, err)

	first, err := f.engine.CreateTag(ctx, "alice", "reset", 10*time.Minute, nil)
	require.NoError(t, err)
	second, err := f.engine.CreateTag(ctx, "alice", "reset", 10*time.Minute, nil)
	require.NoError(t, err)

	resolved, err := f.engine.ResolveTagByOwnerAndType(ctx, "alice", "reset")
	require.NoError(t, err)
	assert.Equal(t, second.ID, resolved.ID, "a reissued tag replaces the (owner, type) slot")

	// Deleting the superseded tag must not remove the newer slot entry.
	require.NoError(t, f.engine.DeleteTag(ctx, first))
	resolved, err = f.engine.ResolveTagByOwnerAndType(ctx, "alice", "reset")
	require.NoError(t, err)
	assert.Equal(t, second.ID, resolved.ID)
}

func TestDeleteTag(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	_, err := f.engine.CreateUser(ctx, "alice", "", nil)
	require.NoError(t, err)
	tag, err := f.engine.CreateTag(ctx, "alice", "reset", 10*time.Minute, nil)
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteTag(ctx, tag))

	_, err = f.engine.ResolveTagByID(ctx, tag.ID)
	assert.ErrorIs(t, err, directory.ErrTagNotFound)
	_, err = f.engine.ResolveTagByOwnerAndType(ctx, "alice", "reset")
	assert.ErrorIs(t, err, directory.ErrTagNotFound)

	// Consuming a tag twice is a no-op.
	require.NoError(t, f.engine.DeleteTag(ctx, tag))
}

func TestSweepExpiredTags(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	_, err := f.engine.CreateUser(ctx, "alice", "", nil)
	require.NoError(t, err)
	_, err = f.engine.CreateUser(ctx, "bob", "", nil)
	require.NoError(t, err)

	_, err = f.engine.CreateTag(ctx, "alice", "reset", 5*time.Minute, nil)
	require.NoError(t, err)
	_, err = f.engine.CreateTag(ctx, "bob", "reset", 5*time.Minute, nil)
	require.NoError(t, err)
	fresh, err := f.engine.CreateTag(ctx, "alice", "emailVerify", time.Hour, nil)
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)

	swept, err := f.engine.SweepExpiredTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, swept)

	// The fresh tag survives and remains resolvable through both indices.
	_, err = f.engine.ResolveTagByID(ctx, fresh.ID)
	require.NoError(t, err)
	_, err = f.engine.ResolveTagByOwnerAndType(ctx, "alice", "emailVerify")
	require.NoError(t, err)

	// A repeat sweep finds nothing.
	swept, err = f.engine.SweepExpiredTags(ctx)
	require.NoError(t, err)
	assert.Zero(t, swept)
}
