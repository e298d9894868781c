package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBlacklistAddContains(t *testing.T) {
	b := NewMemoryBlacklist(10)
	ctx := context.Background()

	require.NoError(t, b.Add(ctx, "jti-1", time.Minute))

	found, err := b.Contains(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = b.Contains(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryBlacklistExpiry(t *testing.T) {
	b := NewMemoryBlacklist(10)
	ctx := context.Background()

	require.NoError(t, b.Add(ctx, "short", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	found, err := b.Contains(ctx, "short")
	require.NoError(t, err)
	assert.False(t, found, "expired entry must not be reported")
	assert.Equal(t, 0, b.Len())
}

func TestMemoryBlacklistZeroTTLIgnored(t *testing.T) {
	b := NewMemoryBlacklist(10)
	ctx := context.Background()

	require.NoError(t, b.Add(ctx, "noop", 0))
	found, err := b.Contains(ctx, "noop")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryBlacklistEviction(t *testing.T) {
	b := NewMemoryBlacklist(3)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, b.Add(ctx, fmt.Sprintf("jti-%d", i), time.Minute))
	}

	assert.Equal(t, 3, b.Len())

	// The oldest entry was evicted; the newest three remain.
	found, _ := b.Contains(ctx, "jti-0")
	assert.False(t, found)
	for i := 1; i < 4; i++ {
		found, _ := b.Contains(ctx, fmt.Sprintf("jti-%d", i))
		assert.True(t, found, "jti-%d should still be present", i)
	}
}
