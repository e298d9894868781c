package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dcallahan/interaction-management/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySearchCacheRoundTrip(t *testing.T) {
	cache := NewMemorySearchCache(10)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, 1, "key", []byte("payload"), time.Minute))

	val, ok, err := cache.Get(ctx, 1, "key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("payload"), val)

	// Same key under another site is a miss.
	_, ok, err = cache.Get(ctx, 2, "key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemorySearchCacheExpiry(t *testing.T) {
	cache := NewMemorySearchCache(10)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, 1, "key", []byte("payload"), 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, ok, err := cache.Get(ctx, 1, "key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemorySearchCacheInvalidateSite(t *testing.T) {
	cache := NewMemorySearchCache(10)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, 1, "a", []byte("1"), time.Minute))
	require.NoError(t, cache.Set(ctx, 1, "b", []byte("2"), time.Minute))
	require.NoError(t, cache.Set(ctx, 2, "c", []byte("3"), time.Minute))

	require.NoError(t, cache.InvalidateSite(ctx, 1))

	_, ok, _ := cache.Get(ctx, 1, "a")
	assert.False(t, ok)
	_, ok, _ = cache.Get(ctx, 1, "b")
	assert.False(t, ok)
	_, ok, _ = cache.Get(ctx, 2, "c")
	assert.True(t, ok, "other sites are untouched")
}

func TestMemorySearchCacheBounded(t *testing.T) {
	cache := NewMemorySearchCache(3)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, cache.Set(ctx, 1, fmt.Sprintf("key-%d", i), []byte("v"), time.Minute))
	}

	_, ok, _ := cache.Get(ctx, 1, "key-0")
	assert.False(t, ok, "oldest entry should be evicted")
	_, ok, _ = cache.Get(ctx, 1, "key-3")
	assert.True(t, ok)
}

func TestQueryKeyStable(t *testing.T) {
	q1 := repository.SearchQuery{Text: "sync", SortBy: "title", Limit: 20}
	q2 := repository.SearchQuery{Text: "sync", SortBy: "title", Limit: 20}
	q3 := repository.SearchQuery{Text: "sync", SortBy: "lead", Limit: 20}

	assert.Equal(t, queryKey(q1), queryKey(q2))
	assert.NotEqual(t, queryKey(q1), queryKey(q3))
}
