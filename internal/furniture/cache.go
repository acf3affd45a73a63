package furniture

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/Clark-Hu/room-catalog/internal/domain"
)

const cacheKeyPrefix = "furniture:item:"

// CachedClient is a read-through Redis cache in front of another Client.
// Redis failures fall back to the wrapped client.
type CachedClient struct {
	next   Client
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedClient wraps next with a Redis cache whose entries expire after ttl.
func NewCachedClient(next Client, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedClient{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// Get returns the cached item for ref or fetches and caches it.
func (c *CachedClient) Get(ctx context.Context, ref string) (*domain.FurnitureItem, error) {
	key := cacheKeyPrefix + ref

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var item domain.FurnitureItem
		if jsonErr := json.Unmarshal(raw, &item); jsonErr == nil {
			return &item, nil
		}
		c.logger.Warn("furniture cache: discarding corrupt entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("furniture cache: read failed", zap.String("key", key), zap.Error(err))
	}

	item, err := c.next.Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(item)
	if err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("furniture cache: write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return item, nil
}

// Ping verifies the cache is reachable.
func (c *CachedClient) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
