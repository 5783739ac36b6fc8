package storage

import "path"

// Keyspace roots shared by the writable backends.
const (
	usersRoot    = "users"
	groupsRoot   = "groups"
	apiKeysRoot  = "apikeys/byKey"
	aliasesRoot  = "aliases/byKey"
	aclsRoot     = "acls"
	tagsByIDRoot = "tags/byTag"
	tagsByUser   = "tags/byUser"
	invalidJWTs  = "invalidJwts"
)

// KeySpace builds the key paths of the shared directory layout, rooted under
// an optional configured prefix.
type KeySpace struct {
	prefix string
}

// NewKeySpace returns a KeySpace rooted at prefix. An empty prefix roots the
// layout at the top of the store.
func NewKeySpace(prefix string) KeySpace {
	return KeySpace{prefix: prefix}
}

func (k KeySpace) join(parts ...string) string {
	if k.prefix != "" {
		parts = append([]string{k.prefix}, parts...)
	}
	return path.Join(parts...)
}

// User returns the key of an identity record.
func (k KeySpace) User(id string) string { return k.join(usersRoot, id) }

// Group returns the key of a group record.
func (k KeySpace) Group(id string) string { return k.join(groupsRoot, id) }

// APIKey returns the primary key of an API key record.
func (k KeySpace) APIKey(id string) string { return k.join(apiKeysRoot, id) }

// Alias returns the primary key of an alias record.
func (k KeySpace) Alias(id string) string { return k.join(aliasesRoot, id) }

// ACL returns the key of a resource's access-control list.
func (k KeySpace) ACL(resource string) string { return k.join(aclsRoot, resource) }

// TagByID returns the primary key of a tag record.
func (k KeySpace) TagByID(id string) string { return k.join(tagsByIDRoot, id) }

// TagByOwner returns the secondary (owner, type) key of a tag record.
func (k KeySpace) TagByOwner(userID, tagType string) string {
	return k.join(tagsByUser, userID, tagType)
}

// InvalidJWT returns the key marking a bearer token as revoked.
func (k KeySpace) InvalidJWT(token string) string { return k.join(invalidJWTs, token) }

// Prefixes used for enumeration and cache scoping.

// UsersPrefix covers every identity record.
func (k KeySpace) UsersPrefix() string { return k.join(usersRoot) }

// GroupsPrefix covers every group record.
func (k KeySpace) GroupsPrefix() string { return k.join(groupsRoot) }

// TagsByIDPrefix covers every primary tag record.
func (k KeySpace) TagsByIDPrefix() string { return k.join(tagsByIDRoot) }

// TagsByOwnerPrefix covers every secondary tag record.
func (k KeySpace) TagsByOwnerPrefix() string { return k.join(tagsByUser) }

// LastSegment returns the trailing path element of a key, which is the
// record id for every primary keyspace.
func LastSegment(key string) string { return path.Base(key) }
