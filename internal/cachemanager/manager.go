package cachemanager

import (
	"context"
	"time"
)

// CacheManager is the cache surface the streaming service depends on.
// Pinned entries never expire until demoted to a TTL.
type CacheManager[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V, ttl time.Duration)
	SetPinned(ctx context.Context, key string, value V)
	Demote(ctx context.Context, key string, ttl time.Duration) bool
	Delete(ctx context.Context, keys ...string) error
	Flush(ctx context.Context) error
}
