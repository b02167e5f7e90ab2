package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"curio/pkg/domain"
)

const listedCacheKey = "curio:listed-items"

// RedisCmdable is the slice of the go-redis client the cache needs.
type RedisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// listedCache keeps the listed-id set in Redis. Best effort: any cache error
// falls back to the store, never to a caller-visible failure.
type listedCache struct {
	client RedisCmdable
	ttl    time.Duration
}

func newListedCache(client RedisCmdable, ttl time.Duration) *listedCache {
	return &listedCache{client: client, ttl: ttl}
}

func (c *listedCache) Get(ctx context.Context) ([]domain.ItemID, bool) {
	raw, err := c.client.Get(ctx, listedCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var ids []domain.ItemID
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, false
	}
	return ids, true
}

func (c *listedCache) Set(ctx context.Context, ids []domain.ItemID) {
	raw, err := json.Marshal(ids)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, listedCacheKey, raw, c.ttl).Err()
}

func (c *listedCache) Invalidate(ctx context.Context) {
	// Best effort; the entry expires via TTL anyway.
	_ = c.client.Del(ctx, listedCacheKey).Err()
}
