package directory

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityAPIKeyList(t *testing.T) {
	id := &Identity{ID: "alice"}

	id.AddAPIKey("key-1")
	id.AddAPIKey("key-2")
	id.AddAPIKey("key-1") // duplicate is a no-op

	assert.True(t, id.HasAPIKey("key-1"))
	assert.True(t, id.HasAPIKey("key-2"))
	assert.Len(t, id.APIKeys, 2)

	id.RemoveAPIKey("key-1")
	assert.False(t, id.HasAPIKey("key-1"))
	assert.Len(t, id.APIKeys, 1)

	// Removing an absent key is a no-op.
	id.RemoveAPIKey("missing")
	assert.Len(t, id.APIKeys, 1)
}

func TestIdentityAliasList(t *testing.T) {
	id := &Identity{ID: "alice"}

	id.AddAlias("alice@example.com")
	id.AddAlias("alice@example.com")
	assert.Len(t, id.Aliases, 1)

	id.RemoveAlias("alice@example.com")
	assert.Empty(t, id.Aliases)
}

func TestIdentityJSONOmitsID(t *testing.T) {
	doc, err := json.Marshal(Identity{ID: "alice", Enabled: true})
	require.NoError(t, err)
	assert.NotContains(t, string(doc), "alice")
}

func TestGroupMembership(t *testing.T) {
	g := &Group{ID: "admins", Name: "Administrators"}

	g.AddMember("alice")
	g.AddMember("bob")
	g.AddMember("alice")
	assert.Len(t, g.Members, 2)
	assert.True(t, g.HasMember("alice"))

	g.RemoveMember("alice")
	assert.False(t, g.HasMember("alice"))
	assert.True(t, g.HasMember("bob"))
}

func TestTagExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tag := Tag{ExpireEpochSeconds: now.Unix()}

	assert.False(t, tag.Expired(now.Add(-time.Second)))
	// Expiration is inclusive of the boundary instant.
	assert.True(t, tag.Expired(now))
	assert.True(t, tag.Expired(now.Add(time.Second)))
}

func TestTagMarshalFlattensData(t *testing.T) {
	tag := Tag{
		ID:                 "tag-1",
		UserID:             "alice",
		Type:               "passwordReset",
		ExpireEpochSeconds: 1700000000,
		Data:               map[string]string{"channel": "email"},
	}

	doc, err := json.Marshal(tag)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(doc, &m))
	assert.Equal(t, "tag-1", m["id"])
	assert.Equal(t, "alice", m["userId"])
	assert.Equal(t, "passwordReset", m["tagType"])
	assert.Equal(t, float64(1700000000), m["expireEpochSeconds"])
	assert.Equal(t, "email", m["channel"])

	// Caller data sits at the top level, not nested under a data key.
	_, nested := m["data"]
	assert.False(t, nested)
}

func TestTagUnmarshalRoundTrip(t *testing.T) {
	tag := Tag{
		ID:                 "tag-1",
		UserID:             "alice",
		Type:               "emailVerify",
		ExpireEpochSeconds: 1700000000,
		Data:               map[string]string{"address": "alice@example.com", "attempt": "2"},
	}

	doc, err := json.Marshal(tag)
	require.NoError(t, err)

	var got Tag
	require.NoError(t, json.Unmarshal(doc, &got))
	assert.Equal(t, tag, got)
}

func TestTagUnmarshalSkipsNonStringData(t *testing.T) {
	doc := []byte(`{"userId":"alice","tagType":"reset","expireEpochSeconds":5,"count":3,"note":"ok"}`)

	var tag Tag
	require.NoError(t, json.Unmarshal(doc, &tag))
	assert.Equal(t, "alice", tag.UserID)
	assert.Equal(t, map[string]string{"note": "ok"}, tag.Data)
}

func TestTagUnmarshalWithoutID(t *testing.T) {
	doc := []byte(`{"userId":"alice","tagType":"reset","expireEpochSeconds":5}`)

	var tag Tag
	require.NoError(t, json.Unmarshal(doc, &tag))
	assert.Empty(t, tag.ID)
	assert.Equal(t, int64(5), tag.ExpireEpochSeconds)
}
