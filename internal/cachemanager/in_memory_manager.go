package cachemanager

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/cachebox/internal/log"
)

const DefaultExpiration = 10 * time.Minute
const DefaultCleanupInterval = 30 * time.Minute

// NewInMemoryCacheManager initializes the in-memory cache with a default cleanup interval
func NewInMemoryCacheManager[V any](useCase string, defaultExpiration, cleanupInterval time.Duration) *InMemoryCacheManager[V] {
	return &InMemoryCacheManager[V]{
		useCase: useCase,
		cache:   gocache.New(defaultExpiration, cleanupInterval),
	}
}

// InMemoryCacheManager is the concrete implementation of the CacheManager interface
type InMemoryCacheManager[V any] struct {
	useCase string
	cache   *gocache.Cache
}

// Get retrieves an item from the cache by its key
func (c *InMemoryCacheManager[V]) Get(ctx context.Context, key string) (V, bool) {
	var zeroValue V

	value, found := c.cache.Get(key)
	if !found {
		return zeroValue, false
	}

	// Type assertion check to ensure the type is correct
	v, ok := value.(V)
	if !ok {
		log.Error(log.CatStream, "wrong type assertion when getting value", "key", key, "useCase", c.useCase)

		return zeroValue, false
	}

	log.Debug(log.CatStream, "cache hit", "key", key)

	return v, true
}

// Set sets a value in the cache with a key and TTL
func (c *InMemoryCacheManager[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) {
	c.cache.Set(key, value, ttl)
}

// SetPinned sets a value that never expires until demoted.
func (c *InMemoryCacheManager[V]) SetPinned(ctx context.Context, key string, value V) {
	c.cache.Set(key, value, gocache.NoExpiration)
}

// Demote re-sets an existing entry with the given TTL so the cache janitor
// owns its reclamation. Returns false when the key is absent.
func (c *InMemoryCacheManager[V]) Demote(ctx context.Context, key string, ttl time.Duration) bool {
	value, found := c.Get(ctx, key)
	if !found {
		return false
	}

	c.cache.Set(key, value, ttl)

	return true
}

// Delete removes values from the cache by key
func (c *InMemoryCacheManager[V]) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	for _, key := range keys {
		c.cache.Delete(key)
	}

	return nil
}

// Flush drops every entry in the cache
func (c *InMemoryCacheManager[V]) Flush(ctx context.Context) error {
	c.cache.Flush()

	return nil
}

// Len returns the number of entries, expired ones included.
func (c *InMemoryCacheManager[V]) Len() int {
	return c.cache.ItemCount()
}
