package directory

import (
	"encoding/json"
	"time"
)

// Identity is a user record. The id is unique and immutable; disabling an
// identity keeps the record but refuses every authentication against it.
type Identity struct {
	ID           string            `json:"-"`
	Enabled      bool              `json:"enabled"`
	PasswordHash string            `json:"passwordHash,omitempty"`
	PasswordSalt string            `json:"passwordSalt,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
	APIKeys      []string          `json:"apiKeys,omitempty"`
	Aliases      []string          `json:"aliases,omitempty"`
}

// HasAPIKey reports whether the identity's denormalized key list contains id.
func (i *Identity) HasAPIKey(id string) bool { return contains(i.APIKeys, id) }

// HasAlias reports whether the identity's denormalized alias list contains id.
func (i *Identity) HasAlias(id string) bool { return contains(i.Aliases, id) }

// AddAPIKey records id in the identity's denormalized key list.
func (i *Identity) AddAPIKey(id string) {
	if !i.HasAPIKey(id) {
		i.APIKeys = append(i.APIKeys, id)
	}
}

// RemoveAPIKey drops id from the identity's denormalized key list.
func (i *Identity) RemoveAPIKey(id string) { i.APIKeys = remove(i.APIKeys, id) }

// AddAlias records id in the identity's denormalized alias list.
func (i *Identity) AddAlias(id string) {
	if !i.HasAlias(id) {
		i.Aliases = append(i.Aliases, id)
	}
}

// RemoveAlias drops id from the identity's denormalized alias list.
func (i *Identity) RemoveAlias(id string) { i.Aliases = remove(i.Aliases, id) }

// Group is a named set of member user ids plus arbitrary user data.
type Group struct {
	ID      string            `json:"-"`
	Name    string            `json:"name"`
	Members []string          `json:"members,omitempty"`
	Data    map[string]string `json:"data,omitempty"`
}

// HasMember reports whether userID is a member of the group.
func (g *Group) HasMember(userID string) bool { return contains(g.Members, userID) }

// AddMember records userID in the group's member set.
func (g *Group) AddMember(userID string) {
	if !g.HasMember(userID) {
		g.Members = append(g.Members, userID)
	}
}

// RemoveMember drops userID from the group's member set.
func (g *Group) RemoveMember(userID string) { g.Members = remove(g.Members, userID) }

// APIKey is a long-lived credential owned by one identity. The key id must
// appear both in the primary keyspace and in the owner's embedded key list.
type APIKey struct {
	ID     string `json:"-"`
	UserID string `json:"userId"`
	Secret string `json:"secret"`
}

// Alias is an alternate login id for an identity, with the same
// dual-location invariant as APIKey.
type Alias struct {
	ID     string `json:"-"`
	UserID string `json:"userId"`
}

// Tag is a short-lived record used for flows such as password reset. It is
// addressable by id or by (owner, type) interchangeably until expiration.
type Tag struct {
	ID                 string
	UserID             string
	Type               string
	ExpireEpochSeconds int64
	Data               map[string]string
}

// Expired reports whether the tag's expiration epoch has passed.
func (t *Tag) Expired(now time.Time) bool {
	return now.Unix() >= t.ExpireEpochSeconds
}

// reserved field names of the flattened tag encoding.
const (
	tagFieldID     = "id"
	tagFieldUser   = "userId"
	tagFieldType   = "tagType"
	tagFieldExpire = "expireEpochSeconds"
)

// MarshalJSON flattens caller data into the tag object alongside the fixed
// fields, producing {userId, tagType, expireEpochSeconds, ...data}. The id is
// included so that a record loaded through the (owner, type) index can still
// locate its primary entry.
func (t Tag) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(t.Data)+4)
	for k, v := range t.Data {
		m[k] = v
	}
	if t.ID != "" {
		m[tagFieldID] = t.ID
	}
	m[tagFieldUser] = t.UserID
	m[tagFieldType] = t.Type
	m[tagFieldExpire] = t.ExpireEpochSeconds
	return json.Marshal(m)
}

// UnmarshalJSON is the inverse of MarshalJSON: fixed fields are pulled out
// and every remaining string-valued field lands in Data.
func (t *Tag) UnmarshalJSON(doc []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(doc, &m); err != nil {
		return err
	}
	if raw, ok := m[tagFieldID]; ok {
		if err := json.Unmarshal(raw, &t.ID); err != nil {
			return err
		}
	}
	if raw, ok := m[tagFieldUser]; ok {
		if err := json.Unmarshal(raw, &t.UserID); err != nil {
			return err
		}
	}
	if raw, ok := m[tagFieldType]; ok {
		if err := json.Unmarshal(raw, &t.Type); err != nil {
			return err
		}
	}
	if raw, ok := m[tagFieldExpire]; ok {
		if err := json.Unmarshal(raw, &t.ExpireEpochSeconds); err != nil {
			return err
		}
	}
	for k, raw := range m {
		switch k {
		case tagFieldID, tagFieldUser, tagFieldType, tagFieldExpire:
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			// Non-string caller data is not part of the stable encoding.
			continue
		}
		if t.Data == nil {
			t.Data = make(map[string]string)
		}
		t.Data[k] = s
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	kept := list[:0]
	for _, item := range list {
		if item != v {
			kept = append(kept, item)
		}
	}
	return kept
}
