package badger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/stashfs/pkg/store/tokens"
)

func newTestCache(t *testing.T) *BadgerCache {
	cache, err := NewBadgerCacheAtPath(t.Context(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestBadgerCache_SetGetDel(t *testing.T) {
	cache := newTestCache(t)
	ctx := t.Context()

	require.NoError(t, cache.Set(ctx, "auth_abc", "user-1", time.Hour))

	userID, err := cache.Get(ctx, "auth_abc")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	require.NoError(t, cache.Del(ctx, "auth_abc"))

	_, err = cache.Get(ctx, "auth_abc")
	assert.ErrorIs(t, err, tokens.ErrTokenNotFound)
}

func TestBadgerCache_Expiry(t *testing.T) {
	cache := newTestCache(t)
	ctx := t.Context()

	// Badger TTLs have one-second granularity, so use a short real wait.
	require.NoError(t, cache.Set(ctx, "auth_short", "user-1", time.Second))

	userID, err := cache.Get(ctx, "auth_short")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	time.Sleep(1500 * time.Millisecond)

	_, err = cache.Get(ctx, "auth_short")
	assert.ErrorIs(t, err, tokens.ErrTokenNotFound)
}

func TestBadgerCache_DelMissing(t *testing.T) {
	cache := newTestCache(t)

	assert.NoError(t, cache.Del(t.Context(), "auth_unknown"))
}
