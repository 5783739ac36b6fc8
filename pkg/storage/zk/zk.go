// Package zk implements the storage backend port over a ZooKeeper ensemble.
// Each key is a znode path under a configured chroot; Store creates-or-sets
// and auto-creates missing parent nodes; reads are strongly consistent so no
// cache is layered on top of this backend.
package zk

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"

	"github.com/platinummonkey/warden/pkg/storage"
)

// Backend stores directory documents as znodes.
type Backend struct {
	conn *zk.Conn
	root string
}

// New connects to the ensemble and ensures the root path exists. The root
// must not carry a trailing slash; an empty root stores keys at the top of
// the namespace.
func New(servers []string, sessionTimeout time.Duration, root string) (*Backend, error) {
	if len(servers) == 0 {
		return nil, errors.New("no zookeeper servers configured")
	}
	if strings.HasSuffix(root, "/") {
		return nil, fmt.Errorf("zookeeper root %q must not end with a slash", root)
	}
	conn, _, err := zk.Connect(servers, sessionTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to zookeeper: %w", err)
	}

	b := &Backend{conn: conn, root: root}
	if root != "" {
		if err := b.ensurePath(b.nodePath("")); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create root path: %w", err)
		}
	}
	return b, nil
}

// Close tears down the ZooKeeper session.
func (b *Backend) Close() {
	b.conn.Close()
}

// nodePath maps a storage key onto an absolute znode path.
func (b *Backend) nodePath(key string) string {
	p := path.Join("/", b.root, key)
	return p
}

// keyFor maps an absolute znode path back onto a storage key.
func (b *Backend) keyFor(nodePath string) string {
	prefix := path.Join("/", b.root)
	key := strings.TrimPrefix(nodePath, prefix)
	return strings.TrimPrefix(key, "/")
}

// Load implements storage.Backend.Load.
func (b *Backend) Load(ctx context.Context, key string) ([]byte, error) {
	doc, _, err := b.conn.Get(b.nodePath(key))
	if err != nil {
		if errors.Is(err, zk.ErrNoNode) {
			return nil, storage.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to get node %q: %w", key, err)
	}
	// Parent nodes materialized for deeper keys hold no document.
	if len(doc) == 0 {
		return nil, storage.ErrKeyNotFound
	}
	return doc, nil
}

// Store implements storage.Backend.Store: create-or-set, materializing
// missing parent nodes.
func (b *Backend) Store(ctx context.Context, key string, doc []byte) error {
	p := b.nodePath(key)
	_, err := b.conn.Set(p, doc, -1)
	if err == nil {
		return nil
	}
	if !errors.Is(err, zk.ErrNoNode) {
		return fmt.Errorf("failed to set node %q: %w", key, err)
	}
	if err := b.createWithParents(p, doc); err != nil {
		// A concurrent Store may have created the node between the failed
		// Set and our Create.
		if errors.Is(err, zk.ErrNodeExists) {
			_, err = b.conn.Set(p, doc, -1)
			if err != nil {
				return fmt.Errorf("failed to set node %q: %w", key, err)
			}
			return nil
		}
		return fmt.Errorf("failed to create node %q: %w", key, err)
	}
	return nil
}

// Create implements storage.Backend.Create. ZooKeeper's create is atomic on
// the node, so concurrent creation of the same key is deduplicated by the
// ensemble.
func (b *Backend) Create(ctx context.Context, key string, doc []byte) error {
	err := b.createWithParents(b.nodePath(key), doc)
	if errors.Is(err, zk.ErrNodeExists) {
		return storage.ErrKeyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create node %q: %w", key, err)
	}
	return nil
}

// Delete implements storage.Backend.Delete, tolerating a node that is
// already gone. Child nodes, if any, are removed first.
func (b *Backend) Delete(ctx context.Context, key string) error {
	return b.deleteRecursive(b.nodePath(key))
}

func (b *Backend) deleteRecursive(p string) error {
	children, _, err := b.conn.Children(p)
	if err != nil {
		if errors.Is(err, zk.ErrNoNode) {
			return nil
		}
		return fmt.Errorf("failed to list children of %q: %w", p, err)
	}
	for _, child := range children {
		if err := b.deleteRecursive(path.Join(p, child)); err != nil {
			return err
		}
	}
	if err := b.conn.Delete(p, -1); err != nil && !errors.Is(err, zk.ErrNoNode) {
		return fmt.Errorf("failed to delete node %q: %w", p, err)
	}
	return nil
}

// ListKeysBelow implements storage.Backend.ListKeysBelow by walking the
// subtree. Intermediate nodes holding no document are skipped.
func (b *Backend) ListKeysBelow(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := b.walk(b.nodePath(prefix), func(nodePath string, hasData bool) {
		if hasData {
			keys = append(keys, b.keyFor(nodePath))
		}
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (b *Backend) walk(p string, visit func(nodePath string, hasData bool)) error {
	children, _, err := b.conn.Children(p)
	if err != nil {
		if errors.Is(err, zk.ErrNoNode) {
			return nil
		}
		return fmt.Errorf("failed to list children of %q: %w", p, err)
	}
	for _, child := range children {
		childPath := path.Join(p, child)
		doc, _, err := b.conn.Get(childPath)
		if err != nil && !errors.Is(err, zk.ErrNoNode) {
			return fmt.Errorf("failed to get node %q: %w", childPath, err)
		}
		visit(childPath, len(doc) > 0)
		if err := b.walk(childPath, visit); err != nil {
			return err
		}
	}
	return nil
}

// HealthCheck reports whether the session is connected.
func (b *Backend) HealthCheck(ctx context.Context) error {
	state := b.conn.State()
	switch state {
	case zk.StateConnected, zk.StateHasSession:
		return nil
	default:
		return fmt.Errorf("zookeeper session in state %s", state)
	}
}

func (b *Backend) createWithParents(p string, doc []byte) error {
	if err := b.ensurePath(path.Dir(p)); err != nil {
		return err
	}
	_, err := b.conn.Create(p, doc, 0, zk.WorldACL(zk.PermAll))
	return err
}

// ensurePath materializes every missing ancestor of p with an empty
// document.
func (b *Backend) ensurePath(p string) error {
	if p == "/" || p == "" {
		return nil
	}
	exists, _, err := b.conn.Exists(p)
	if err != nil {
		return fmt.Errorf("failed to check node %q: %w", p, err)
	}
	if exists {
		return nil
	}
	if err := b.ensurePath(path.Dir(p)); err != nil {
		return err
	}
	_, err = b.conn.Create(p, nil, 0, zk.WorldACL(zk.PermAll))
	if err != nil && !errors.Is(err, zk.ErrNodeExists) {
		return fmt.Errorf("failed to create node %q: %w", p, err)
	}
	return nil
}
