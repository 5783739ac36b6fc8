package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryBackend keeps the whole directory in one in-process document map
// guarded by a single lock. Every mutation is serialized through that lock,
// so the history is linearizable and Create is a true conditional write.
type MemoryBackend struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[string][]byte)}
}

// Load implements Backend.Load.
func (b *MemoryBackend) Load(ctx context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	doc, ok := b.docs[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(doc))
	copy(out, doc)
	return out, nil
}

// Store implements Backend.Store.
func (b *MemoryBackend) Store(ctx context.Context, key string, doc []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[key] = cloneDoc(doc)
	return nil
}

// Create implements Backend.Create. The existence check and the write happen
// under the same lock.
func (b *MemoryBackend) Create(ctx context.Context, key string, doc []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.docs[key]; ok {
		return ErrKeyExists
	}
	b.docs[key] = cloneDoc(doc)
	return nil
}

// Delete implements Backend.Delete.
func (b *MemoryBackend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.docs, key)
	return nil
}

// ListKeysBelow implements Backend.ListKeysBelow. Keys are returned sorted.
func (b *MemoryBackend) ListKeysBelow(ctx context.Context, prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var keys []string
	for key := range b.docs {
		if strings.HasPrefix(key, prefix+"/") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored documents.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.docs)
}

func cloneDoc(doc []byte) []byte {
	out := make([]byte, len(doc))
	copy(out, doc)
	return out
}
