package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackendLoadStore(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()

	_, err := b.Load(ctx, "users/alice")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, b.Store(ctx, "users/alice", []byte(`{"enabled":true}`)))

	doc, err := b.Load(ctx, "users/alice")
	require.NoError(t, err)
	assert.Equal(t, `{"enabled":true}`, string(doc))

	// Store overwrites unconditionally.
	require.NoError(t, b.Store(ctx, "users/alice", []byte(`{"enabled":false}`)))
	doc, err = b.Load(ctx, "users/alice")
	require.NoError(t, err)
	assert.Equal(t, `{"enabled":false}`, string(doc))
}

func TestMemoryBackendCopiesDocuments(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()

	in := []byte("original")
	require.NoError(t, b.Store(ctx, "k", in))
	in[0] = 'X'

	out, err := b.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "original", string(out))

	// Mutating the returned slice must not affect the stored copy.
	out[0] = 'Y'
	again, err := b.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "original", string(again))
}

func TestMemoryBackendCreate(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()

	require.NoError(t, b.Create(ctx, "users/alice", []byte("one")))
	assert.ErrorIs(t, b.Create(ctx, "users/alice", []byte("two")), ErrKeyExists)

	doc, err := b.Load(ctx, "users/alice")
	require.NoError(t, err)
	assert.Equal(t, "one", string(doc), "losing Create must not overwrite")
}

func TestMemoryBackendCreateConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()

	const racers = 32
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = b.Create(ctx, "users/alice", []byte(fmt.Sprintf("racer-%d", i)))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrKeyExists)
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent Create must succeed")
}

func TestMemoryBackendDelete(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()

	require.NoError(t, b.Store(ctx, "k", []byte("v")))
	require.NoError(t, b.Delete(ctx, "k"))
	_, err := b.Load(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// Deleting an absent key is not an error.
	require.NoError(t, b.Delete(ctx, "k"))
}

func TestMemoryBackendListKeysBelow(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()

	require.NoError(t, b.Store(ctx, "users/bob", []byte("b")))
	require.NoError(t, b.Store(ctx, "users/alice", []byte("a")))
	require.NoError(t, b.Store(ctx, "groups/admins", []byte("g")))
	require.NoError(t, b.Store(ctx, "usersX/eve", []byte("x")))

	keys, err := b.ListKeysBelow(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"users/alice", "users/bob"}, keys, "sorted, and prefix must match a whole segment")

	keys, err = b.ListKeysBelow(ctx, "tags")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMemoryBackendLen(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	assert.Equal(t, 0, b.Len())

	require.NoError(t, b.Store(ctx, "a", nil))
	require.NoError(t, b.Store(ctx, "b", nil))
	assert.Equal(t, 2, b.Len())
}
