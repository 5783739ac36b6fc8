package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/platinummonkey/warden/pkg/directory"
	"github.com/platinummonkey/warden/pkg/storage"
)

// CreateGroup creates a new group, failing with ErrGroupExists when the id
// is taken.
func (e *Engine) CreateGroup(ctx context.Context, id, name string, data map[string]string) (*directory.Group, error) {
	group := &directory.Group{
		ID:   id,
		Name: name,
		Data: data,
	}
	doc, err := json.Marshal(group)
	if err != nil {
		return nil, fmt.Errorf("failed to encode group: %w", err)
	}
	if err := e.create(ctx, "createGroup", e.keys.Group(id), doc); err != nil {
		if errors.Is(err, storage.ErrKeyExists) {
			return nil, directory.ErrGroupExists
		}
		return nil, err
	}
	return group, nil
}

// LoadGroup returns the group record for id, or ErrGroupNotFound.
func (e *Engine) LoadGroup(ctx context.Context, id string) (*directory.Group, error) {
	doc, err := e.load(ctx, "loadGroup", e.keys.Group(id))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, directory.ErrGroupNotFound
		}
		return nil, err
	}
	var group directory.Group
	if err := json.Unmarshal(doc, &group); err != nil {
		return nil, fmt.Errorf("failed to decode group %q: %w", id, err)
	}
	group.ID = id
	return &group, nil
}

func (e *Engine) storeGroup(ctx context.Context, group *directory.Group) error {
	doc, err := json.Marshal(group)
	if err != nil {
		return fmt.Errorf("failed to encode group: %w", err)
	}
	return e.store(ctx, "storeGroup", e.keys.Group(group.ID), doc)
}

// AddUserToGroup adds an existing identity to the group's member set. The
// user id is validated against identity existence before the membership is
// written.
func (e *Engine) AddUserToGroup(ctx context.Context, groupID, userID string) error {
	if _, err := e.LoadUser(ctx, userID); err != nil {
		return err
	}
	group, err := e.LoadGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.HasMember(userID) {
		return nil
	}
	group.AddMember(userID)
	return e.storeGroup(ctx, group)
}

// RemoveUserFromGroup drops the identity from the group's member set.
// Removing a non-member is a no-op, not an error.
func (e *Engine) RemoveUserFromGroup(ctx context.Context, groupID, userID string) error {
	group, err := e.LoadGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.HasMember(userID) {
		return nil
	}
	group.RemoveMember(userID)
	return e.storeGroup(ctx, group)
}

// GroupsForUser returns the ids of every group the identity is a member of,
// by scanning the group keyspace. Backends that cannot enumerate (the
// external provider) report none.
func (e *Engine) GroupsForUser(ctx context.Context, userID string) ([]string, error) {
	keys, err := e.listKeys(ctx, "groupsForUser", e.keys.GroupsPrefix())
	if err != nil {
		return nil, err
	}
	var groups []string
	for _, key := range keys {
		group, err := e.LoadGroup(ctx, storage.LastSegment(key))
		if err != nil {
			if errors.Is(err, directory.ErrGroupNotFound) {
				continue
			}
			return nil, err
		}
		if group.HasMember(userID) {
			groups = append(groups, group.ID)
		}
	}
	return groups, nil
}
