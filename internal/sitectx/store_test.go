package sitectx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, 1, 7))
	siteID, ok, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint(7), siteID)

	// A new selection replaces the previous one.
	require.NoError(t, store.Set(ctx, 1, 9))
	siteID, _, _ = store.Get(ctx, 1)
	assert.Equal(t, uint(9), siteID)

	require.NoError(t, store.Clear(ctx, 1))
	_, ok, err = store.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}
