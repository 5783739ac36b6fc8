package engine

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/platinummonkey/warden/pkg/directory"
	"github.com/platinummonkey/warden/pkg/storage"
)

const apiKeySecretLength = 32

// CreateAPIKey mints an API key for an existing identity. The write order
// fails safe: owner validated first, primary record written second, the
// owner's denormalized key list updated last — a crash in between leaves a
// dangling primary record that no index references, never an index entry
// pointing at nothing.
func (e *Engine) CreateAPIKey(ctx context.Context, ownerID string) (*directory.APIKey, error) {
	owner, err := e.LoadUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, err
	}
	key := &directory.APIKey{
		ID:     uuid.NewString(),
		UserID: ownerID,
		Secret: secret,
	}
	doc, err := json.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("failed to encode api key: %w", err)
	}
	if err := e.store(ctx, "createApiKey", e.keys.APIKey(key.ID), doc); err != nil {
		return nil, err
	}

	owner.AddAPIKey(key.ID)
	if err := e.StoreUser(ctx, owner); err != nil {
		return nil, err
	}
	e.log.WithField("user", ownerID).WithField("apiKey", key.ID).Info("api key created")
	return key, nil
}

// LoadAPIKey returns the API key record, or ErrAPIKeyNotFound.
func (e *Engine) LoadAPIKey(ctx context.Context, id string) (*directory.APIKey, error) {
	doc, err := e.load(ctx, "loadApiKey", e.keys.APIKey(id))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, directory.ErrAPIKeyNotFound
		}
		return nil, err
	}
	var key directory.APIKey
	if err := json.Unmarshal(doc, &key); err != nil {
		return nil, fmt.Errorf("failed to decode api key %q: %w", id, err)
	}
	key.ID = id
	return &key, nil
}

// DeleteAPIKey removes the key from the owner's denormalized list first and
// then deletes the primary record. A primary record that is already gone is
// tolerated; an owner that is already gone just skips the index update.
func (e *Engine) DeleteAPIKey(ctx context.Context, id string) error {
	key, err := e.LoadAPIKey(ctx, id)
	if err != nil {
		if errors.Is(err, directory.ErrAPIKeyNotFound) {
			return nil
		}
		return err
	}

	owner, err := e.LoadUser(ctx, key.UserID)
	switch {
	case err == nil:
		if owner.HasAPIKey(id) {
			owner.RemoveAPIKey(id)
			if err := e.StoreUser(ctx, owner); err != nil {
				return err
			}
		}
	case errors.Is(err, directory.ErrIdentityNotFound):
		// Owner already deleted; still remove the primary record.
	default:
		return err
	}

	return e.delete(ctx, "deleteApiKey", e.keys.APIKey(id))
}

// APIKeysForUser returns the ids in the identity's denormalized key list.
func (e *Engine) APIKeysForUser(ctx context.Context, ownerID string) ([]string, error) {
	owner, err := e.LoadUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return owner.APIKeys, nil
}

// generateSecret returns a URL-safe random secret.
func generateSecret() (string, error) {
	raw := make([]byte, apiKeySecretLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
