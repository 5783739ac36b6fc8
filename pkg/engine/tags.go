package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/warden/pkg/directory"
	"github.com/platinummonkey/warden/pkg/storage"
)

// CreateTag issues a time-limited tag for an existing identity. The tag is
// addressable by its id and by (owner, type) interchangeably until it
// expires; issuing a new tag of the same type for the same owner replaces
// the (owner, type) entry.
func (e *Engine) CreateTag(ctx context.Context, ownerID, tagType string, ttl time.Duration, data map[string]string) (*directory.Tag, error) {
	if _, err := e.LoadUser(ctx, ownerID); err != nil {
		return nil, err
	}

	tag := &directory.Tag{
		ID:                 uuid.NewString(),
		UserID:             ownerID,
		Type:               tagType,
		ExpireEpochSeconds: e.now().Add(ttl).Unix(),
		Data:               data,
	}
	doc, err := json.Marshal(tag)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tag: %w", err)
	}
	if err := e.store(ctx, "createTag", e.keys.TagByID(tag.ID), doc); err != nil {
		return nil, err
	}
	if err := e.store(ctx, "createTag", e.keys.TagByOwner(ownerID, tagType), doc); err != nil {
		return nil, err
	}
	return tag, nil
}

// ResolveTagByID returns the live tag with the given id. An expired tag is
// removed from both indices on the spot and reported as ErrTagNotFound,
// exactly as a sweep would.
func (e *Engine) ResolveTagByID(ctx context.Context, id string) (*directory.Tag, error) {
	return e.resolveTag(ctx, e.keys.TagByID(id))
}

// ResolveTagByOwnerAndType returns the live tag for (owner, type), with the
// same lazy-expiry behavior as ResolveTagByID.
func (e *Engine) ResolveTagByOwnerAndType(ctx context.Context, ownerID, tagType string) (*directory.Tag, error) {
	return e.resolveTag(ctx, e.keys.TagByOwner(ownerID, tagType))
}

func (e *Engine) resolveTag(ctx context.Context, key string) (*directory.Tag, error) {
	doc, err := e.load(ctx, "resolveTag", key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, directory.ErrTagNotFound
		}
		return nil, err
	}
	var tag directory.Tag
	if err := json.Unmarshal(doc, &tag); err != nil {
		return nil, fmt.Errorf("failed to decode tag: %w", err)
	}
	if tag.Expired(e.now()) {
		if err := e.removeTag(ctx, &tag); err != nil {
			return nil, err
		}
		if e.metrics != nil {
			e.metrics.RecordTagsSwept(1)
		}
		return nil, directory.ErrTagNotFound
	}
	return &tag, nil
}

// DeleteTag consumes a tag, removing it from both indices. Deleting a tag
// that is already gone is a no-op.
func (e *Engine) DeleteTag(ctx context.Context, tag *directory.Tag) error {
	return e.removeTag(ctx, tag)
}

func (e *Engine) removeTag(ctx context.Context, tag *directory.Tag) error {
	// The (owner, type) slot may already hold a newer tag: issuing a tag of
	// the same type replaces the slot. Only remove it when it still points
	// at this tag.
	ownerKey := e.keys.TagByOwner(tag.UserID, tag.Type)
	doc, err := e.load(ctx, "removeTag", ownerKey)
	switch {
	case err == nil:
		var current directory.Tag
		if jsonErr := json.Unmarshal(doc, &current); jsonErr != nil || current.ID == tag.ID {
			if err := e.delete(ctx, "removeTag", ownerKey); err != nil {
				return err
			}
		}
	case errors.Is(err, storage.ErrKeyNotFound):
		// Already gone.
	default:
		return err
	}

	if tag.ID != "" {
		if err := e.delete(ctx, "removeTag", e.keys.TagByID(tag.ID)); err != nil {
			return err
		}
	}
	return nil
}

// sweepWorkers bounds concurrent backend reads during a tag sweep.
const sweepWorkers = 8

// SweepExpiredTags scans both tag indices and removes every expired entry.
// It returns the number of tags removed. The sweep is an optimization: the
// read paths already expire lazily.
func (e *Engine) SweepExpiredTags(ctx context.Context) (int, error) {
	var swept atomic.Int64
	// The prefixes are processed one after the other so a tag removed via
	// its primary key is not counted again through the owner index.
	for _, prefix := range []string{e.keys.TagsByIDPrefix(), e.keys.TagsByOwnerPrefix()} {
		keys, err := e.listKeys(ctx, "sweepExpiredTags", prefix)
		if err != nil {
			return int(swept.Load()), err
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(sweepWorkers)
		for _, key := range keys {
			key := key
			g.Go(func() error {
				doc, err := e.load(gctx, "sweepExpiredTags", key)
				if err != nil {
					if errors.Is(err, storage.ErrKeyNotFound) {
						return nil
					}
					return err
				}
				var tag directory.Tag
				if err := json.Unmarshal(doc, &tag); err != nil {
					e.log.WithError(err).WithField("key", key).Warn("skipping undecodable tag")
					return nil
				}
				if !tag.Expired(e.now()) {
					return nil
				}
				if err := e.removeTag(gctx, &tag); err != nil {
					return err
				}
				swept.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return int(swept.Load()), err
		}
	}
	total := int(swept.Load())
	if e.metrics != nil {
		e.metrics.RecordTagsSwept(total)
	}
	if total > 0 {
		e.log.WithField("count", total).Info("expired tags swept")
	}
	return total, nil
}
