package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

func newCollection(name, handle string) *domain.Collection {
	now := time.Now()
	return &domain.Collection{Name: name, Handle: handle, CreatedAt: now, UpdatedAt: now}
}

func TestCollectionStore_CreateAndGet(t *testing.T) {
	store := NewCollectionStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newCollection("essays", "h1")))

	c, err := store.Get(ctx, "essays")
	require.NoError(t, err)
	assert.Equal(t, "h1", c.Handle)

	err = store.Create(ctx, newCollection("essays", "h2"))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCollectionStore_Rename(t *testing.T) {
	store := NewCollectionStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newCollection("a", "h1")))
	require.NoError(t, store.Create(ctx, newCollection("b", "h2")))

	assert.ErrorIs(t, store.Rename(ctx, "missing", "c"), domain.ErrNotFound)
	assert.ErrorIs(t, store.Rename(ctx, "a", "b"), domain.ErrAlreadyExists)
	require.NoError(t, store.Rename(ctx, "a", "a"))

	require.NoError(t, store.Rename(ctx, "a", "c"))
	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	c, err := store.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "h1", c.Handle)
	assert.Equal(t, "c", c.Name)
}

func TestCollectionStore_DeleteAndList(t *testing.T) {
	store := NewCollectionStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newCollection("zeta", "h1")))
	require.NoError(t, store.Create(ctx, newCollection("alpha", "h2")))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "zeta", list[1].Name)

	require.NoError(t, store.Delete(ctx, "zeta"))
	assert.ErrorIs(t, store.Delete(ctx, "zeta"), domain.ErrNotFound)

	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
