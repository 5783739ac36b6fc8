package engine

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/platinummonkey/warden/pkg/access"
	"github.com/platinummonkey/warden/pkg/storage"
)

// GetACLFor loads the access-control list attached to a resource. A
// resource with no stored list gets an empty one, which denies everything.
func (e *Engine) GetACLFor(ctx context.Context, resource string) (*access.List, error) {
	doc, err := e.load(ctx, "getAclFor", e.keys.ACL(resource))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return &access.List{}, nil
		}
		return nil, err
	}
	return access.Decode(doc)
}

// StoreACL persists the serialized form an ACL mutator returned. The policy
// object never writes to storage itself.
func (e *Engine) StoreACL(ctx context.Context, resource string, doc json.RawMessage) error {
	return e.store(ctx, "storeAcl", e.keys.ACL(resource), doc)
}

// CheckAccess loads the resource's ACL and evaluates it for the principal.
func (e *Engine) CheckAccess(ctx context.Context, resource, userID string, groups []string, op string) (bool, error) {
	acl, err := e.GetACLFor(ctx, resource)
	if err != nil {
		return false, err
	}
	return acl.CanUser(userID, groups, op), nil
}
