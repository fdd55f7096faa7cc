package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/linklab/linkdex/internal/domain"
)

// DefaultCacheTTL bounds how long a cached aggregate listing may live without
// a refresh. Invalidation on write is the primary mechanism; the TTL is only
// a backstop.
const DefaultCacheTTL = time.Hour

// Cache stores the aggregated collection and the current version token in
// Redis, best effort. The shard files stay the source of truth; every method
// here may fail without affecting correctness.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a cache over an established Redis client.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// SaveCollection caches the full collection together with its version token.
func (c *Cache) SaveCollection(ctx context.Context, items []*domain.Link, version string) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal collection: %w", err)
	}

	if err := c.client.Set(ctx, CollectionKey(), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache collection: %w", err)
	}
	if err := c.client.Set(ctx, VersionKey(), version, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache version: %w", err)
	}
	return nil
}

// GetCollection returns the cached collection and its version token.
// A cache miss returns (nil, "", nil).
func (c *Cache) GetCollection(ctx context.Context) ([]*domain.Link, string, error) {
	data, err := c.client.Get(ctx, CollectionKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to get cached collection: %w", err)
	}

	var items []*domain.Link
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal cached collection: %w", err)
	}

	version, err := c.client.Get(ctx, VersionKey()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, "", fmt.Errorf("failed to get cached version: %w", err)
	}
	return items, version, nil
}

// Invalidate drops the cached collection. Called explicitly after every
// successful mutation so readers never see a stale aggregate.
func (c *Cache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, CollectionKey(), VersionKey()).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

// Ping reports cache availability for health endpoints.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
