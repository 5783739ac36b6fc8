package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/platinummonkey/warden/pkg/directory"
	"github.com/platinummonkey/warden/pkg/storage"
)

// CreateUser creates a new identity. The write is a conditional create, so
// two concurrent calls for the same id resolve to exactly one winner; the
// loser fails with ErrIdentityExists.
func (e *Engine) CreateUser(ctx context.Context, id, password string, data map[string]string) (*directory.Identity, error) {
	identity := &directory.Identity{
		ID:      id,
		Enabled: true,
		Data:    data,
	}
	if password != "" {
		hash, salt, err := directory.HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		identity.PasswordHash = hash
		identity.PasswordSalt = salt
	}

	doc, err := json.Marshal(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to encode identity: %w", err)
	}
	if err := e.create(ctx, "createUser", e.keys.User(id), doc); err != nil {
		if errors.Is(err, storage.ErrKeyExists) {
			return nil, directory.ErrIdentityExists
		}
		return nil, err
	}
	e.log.WithField("user", id).Info("identity created")
	return identity, nil
}

// LoadUser returns the identity record for id, or ErrIdentityNotFound.
func (e *Engine) LoadUser(ctx context.Context, id string) (*directory.Identity, error) {
	doc, err := e.load(ctx, "loadUser", e.keys.User(id))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, directory.ErrIdentityNotFound
		}
		return nil, err
	}
	var identity directory.Identity
	if err := json.Unmarshal(doc, &identity); err != nil {
		return nil, fmt.Errorf("failed to decode identity %q: %w", id, err)
	}
	identity.ID = id
	return &identity, nil
}

// StoreUser persists a mutated identity record in place.
func (e *Engine) StoreUser(ctx context.Context, identity *directory.Identity) error {
	doc, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	return e.store(ctx, "storeUser", e.keys.User(identity.ID), doc)
}

// SetUserEnabled flips the enabled flag. Disabling does not delete the
// record; it refuses every authentication against the identity.
func (e *Engine) SetUserEnabled(ctx context.Context, id string, enabled bool) error {
	identity, err := e.LoadUser(ctx, id)
	if err != nil {
		return err
	}
	identity.Enabled = enabled
	return e.StoreUser(ctx, identity)
}

// DeleteUser removes the identity and cascade-invalidates its credentials:
// the primary records of every API key and alias the identity owns are
// deleted before the identity record itself, so no orphaned credential can
// still authenticate.
func (e *Engine) DeleteUser(ctx context.Context, id string) error {
	identity, err := e.LoadUser(ctx, id)
	if err != nil {
		return err
	}
	for _, keyID := range identity.APIKeys {
		if err := e.delete(ctx, "deleteUser", e.keys.APIKey(keyID)); err != nil {
			return err
		}
	}
	for _, aliasID := range identity.Aliases {
		if err := e.delete(ctx, "deleteUser", e.keys.Alias(aliasID)); err != nil {
			return err
		}
	}
	if err := e.delete(ctx, "deleteUser", e.keys.User(id)); err != nil {
		return err
	}
	e.log.WithField("user", id).Info("identity deleted")
	return nil
}
