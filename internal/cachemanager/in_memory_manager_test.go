package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewInMemoryCacheManager(t *testing.T) {
	require.NotPanics(t, func() {
		NewInMemoryCacheManager[string]("test", DefaultExpiration, DefaultCleanupInterval)
	})
}

type ExampleStruct struct {
	ID   int
	Name string
}

func TestNewInMemoryCacheManager_GetExistingValue_StructType(t *testing.T) {
	cache := NewInMemoryCacheManager[ExampleStruct]("asset-cache", DefaultExpiration, DefaultCleanupInterval)
	example := ExampleStruct{
		Name: "crate",
	}
	cache.Set(context.Background(), "ex:1", example, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "ex:1")
	require.True(t, ok)
	require.Equal(t, example, got)
}

func TestNewInMemoryCacheManager_GetWithNoExistingValue(t *testing.T) {
	cache := NewInMemoryCacheManager[string]("asset-cache", DefaultExpiration, DefaultCleanupInterval)

	got, ok := cache.Get(context.Background(), "missing")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestNewInMemoryCacheManager_GetWithExistingInvalidValueType(t *testing.T) {
	cache := NewInMemoryCacheManager[string]("asset-cache", DefaultExpiration, DefaultCleanupInterval)

	cache.cache.Set("food", 123, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "food")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestNewInMemoryCacheManager_SetWithTTLExpires(t *testing.T) {
	cache := NewInMemoryCacheManager[string]("asset-cache", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "food", "apple", 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)

	got, ok := cache.Get(context.Background(), "food")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestNewInMemoryCacheManager_SetPinnedNeverExpires(t *testing.T) {
	cache := NewInMemoryCacheManager[string]("asset-cache", 10*time.Millisecond, DefaultCleanupInterval)
	cache.SetPinned(context.Background(), "food", "apple")

	time.Sleep(30 * time.Millisecond)

	got, ok := cache.Get(context.Background(), "food")
	require.True(t, ok)
	require.Equal(t, "apple", got)
}

func TestNewInMemoryCacheManager_DemoteExistingValue(t *testing.T) {
	cache := NewInMemoryCacheManager[string]("asset-cache", DefaultExpiration, DefaultCleanupInterval)
	cache.SetPinned(context.Background(), "food", "apple")

	require.True(t, cache.Demote(context.Background(), "food", 10*time.Millisecond))

	time.Sleep(30 * time.Millisecond)

	_, ok := cache.Get(context.Background(), "food")
	require.False(t, ok, "demoted entry expires on its TTL")
}

func TestNewInMemoryCacheManager_DemoteMissingValue(t *testing.T) {
	cache := NewInMemoryCacheManager[string]("asset-cache", DefaultExpiration, DefaultCleanupInterval)

	require.False(t, cache.Demote(context.Background(), "missing", time.Minute))
}

func TestNewInMemoryCacheManager_DeleteWithNoKeysDoesNothing(t *testing.T) {
	cache := NewInMemoryCacheManager[string]("asset-cache", DefaultExpiration, DefaultCleanupInterval)

	err := cache.Delete(context.Background())
	require.NoError(t, err)
}

func TestNewInMemoryCacheManager_DeleteExistingValue(t *testing.T) {
	cache := NewInMemoryCacheManager[string]("asset-cache", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "food", "apple", DefaultExpiration)

	err := cache.Delete(context.Background(), "food")
	require.NoError(t, err)

	_, ok := cache.Get(context.Background(), "food")
	require.False(t, ok)
}

func TestNewInMemoryCacheManager_Flush(t *testing.T) {
	cache := NewInMemoryCacheManager[string]("asset-cache", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "food", "apple", DefaultExpiration)
	cache.SetPinned(context.Background(), "drink", "juice")
	require.Equal(t, 2, cache.Len())

	err := cache.Flush(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, cache.Len())

	_, ok := cache.Get(context.Background(), "food")
	require.False(t, ok)
}
