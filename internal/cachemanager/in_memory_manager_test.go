package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type spec struct {
	Type       string
	Namespaces []string
}

func TestNewInMemoryCacheManager(t *testing.T) {
	require.NotPanics(t, func() {
		NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)
	})
}

func TestInMemoryCacheManager_GetExistingValue_SliceType(t *testing.T) {
	cache := NewInMemoryCacheManager[string, []spec]("parse", DefaultExpiration, DefaultCleanupInterval)
	want := []spec{{Type: "click", Namespaces: []string{"ui"}}}
	cache.Set(context.Background(), "click.ui", want, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "click.ui")
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestInMemoryCacheManager_GetMissing(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("parse", DefaultExpiration, DefaultCleanupInterval)

	got, ok := cache.Get(context.Background(), "click")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_GetWrongType(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("parse", DefaultExpiration, DefaultCleanupInterval)
	cache.cache.Set("click", 123, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "click")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_Expires(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("parse", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "click", "v", time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := cache.Get(context.Background(), "click")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestInMemoryCacheManager_GetWithRefresh(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("parse", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "click", "v", 50*time.Millisecond)

	got, ok := cache.GetWithRefresh(context.Background(), "click", time.Hour)
	require.True(t, ok)
	require.Equal(t, "v", got)

	_, expiration, found := cache.cache.GetWithExpiration("click")
	require.True(t, found)
	require.True(t, time.Until(expiration) > time.Minute, "ttl should be extended")

	_, ok = cache.GetWithRefresh(context.Background(), "missing", time.Hour)
	require.False(t, ok)
}

func TestInMemoryCacheManager_DeleteAndFlush(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[string, string]("parse", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(ctx, "a", "1", DefaultExpiration)
	cache.Set(ctx, "b", "2", DefaultExpiration)
	cache.Set(ctx, "c", "3", DefaultExpiration)

	require.NoError(t, cache.Delete(ctx))
	require.NoError(t, cache.Delete(ctx, "a", "b"))
	_, ok := cache.Get(ctx, "a")
	require.False(t, ok)
	_, ok = cache.Get(ctx, "c")
	require.True(t, ok)

	require.NoError(t, cache.Flush(ctx))
	_, ok = cache.Get(ctx, "c")
	require.False(t, ok)
}

func TestInMemoryCacheManager_Stats(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[string, string]("parse", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(ctx, "a", "1", DefaultExpiration)

	cache.Get(ctx, "a")
	cache.Get(ctx, "a")
	cache.Get(ctx, "b")

	require.Equal(t, Stats{Hits: 2, Misses: 1, Items: 1}, cache.Stats())
}
