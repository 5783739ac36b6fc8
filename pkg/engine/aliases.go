package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/platinummonkey/warden/pkg/directory"
	"github.com/platinummonkey/warden/pkg/storage"
)

// AddAlias registers an alternate login id for an existing identity. The
// alias keyspace is shared across all identities, so the primary write is a
// conditional create: claiming an alias that is already taken fails with
// ErrAliasExists instead of silently stealing it.
func (e *Engine) AddAlias(ctx context.Context, ownerID, aliasID string) (*directory.Alias, error) {
	owner, err := e.LoadUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	alias := &directory.Alias{ID: aliasID, UserID: ownerID}
	doc, err := json.Marshal(alias)
	if err != nil {
		return nil, fmt.Errorf("failed to encode alias: %w", err)
	}
	if err := e.create(ctx, "addAlias", e.keys.Alias(aliasID), doc); err != nil {
		if errors.Is(err, storage.ErrKeyExists) {
			return nil, directory.ErrAliasExists
		}
		return nil, err
	}

	owner.AddAlias(aliasID)
	if err := e.StoreUser(ctx, owner); err != nil {
		return nil, err
	}
	return alias, nil
}

// LoadAlias resolves an alias to its record, or ErrAliasNotFound.
func (e *Engine) LoadAlias(ctx context.Context, aliasID string) (*directory.Alias, error) {
	doc, err := e.load(ctx, "loadAlias", e.keys.Alias(aliasID))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, directory.ErrAliasNotFound
		}
		return nil, err
	}
	var alias directory.Alias
	if err := json.Unmarshal(doc, &alias); err != nil {
		return nil, fmt.Errorf("failed to decode alias %q: %w", aliasID, err)
	}
	alias.ID = aliasID
	return &alias, nil
}

// RemoveAlias drops an alias: the owner-side reference first, then the
// primary record, tolerating either being gone already.
func (e *Engine) RemoveAlias(ctx context.Context, aliasID string) error {
	alias, err := e.LoadAlias(ctx, aliasID)
	if err != nil {
		if errors.Is(err, directory.ErrAliasNotFound) {
			return nil
		}
		return err
	}

	owner, err := e.LoadUser(ctx, alias.UserID)
	switch {
	case err == nil:
		if owner.HasAlias(aliasID) {
			owner.RemoveAlias(aliasID)
			if err := e.StoreUser(ctx, owner); err != nil {
				return err
			}
		}
	case errors.Is(err, directory.ErrIdentityNotFound):
		// Owner already deleted; still remove the primary record.
	default:
		return err
	}

	return e.delete(ctx, "removeAlias", e.keys.Alias(aliasID))
}

// AliasesForUser returns the ids in the identity's denormalized alias list.
func (e *Engine) AliasesForUser(ctx context.Context, ownerID string) ([]string, error) {
	owner, err := e.LoadUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return owner.Aliases, nil
}
