package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"studio-booking/internal/pkg/errs"
	"studio-booking/internal/pkg/metrics"
	"studio-booking/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisAvailabilityCache keeps computed day grids for a short TTL. It is an
// optimization layer only: the conflict guard never consults it, so stale
// entries can at worst show a slot that booking then rejects.
type RedisAvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAvailabilityCache(client *redis.Client, ttl time.Duration) *RedisAvailabilityCache {
	return &RedisAvailabilityCache{client: client, ttl: ttl}
}

func (c *RedisAvailabilityCache) Get(ctx context.Context, key string) (*queries.AvailabilityView, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, errs.Wrap(err, "failed to read availability cache")
	}

	var view queries.AvailabilityView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, errs.Wrap(err, "failed to decode cached availability")
	}
	metrics.AvailabilityCacheHits.Inc()
	return &view, nil
}

func (c *RedisAvailabilityCache) Set(ctx context.Context, key string, view *queries.AvailabilityView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return errs.Wrap(err, "failed to encode availability for cache")
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return errs.Wrap(err, "failed to write availability cache")
	}
	return nil
}

// InvalidateProvider drops every cached grid for the provider. Called after
// a successful booking write; scanning by prefix keeps the write path free
// of date bookkeeping.
func (c *RedisAvailabilityCache) InvalidateProvider(ctx context.Context, providerID uuid.UUID) error {
	pattern := fmt.Sprintf("availability:%s:*", providerID)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return errs.Wrap(err, "failed to delete availability cache key")
		}
	}
	if err := iter.Err(); err != nil {
		return errs.Wrap(err, "failed to scan availability cache keys")
	}
	return nil
}

// NoopAvailabilityCache is used when Redis is disabled.
type NoopAvailabilityCache struct{}

func NewNoopAvailabilityCache() *NoopAvailabilityCache {
	return &NoopAvailabilityCache{}
}

func (NoopAvailabilityCache) Get(ctx context.Context, key string) (*queries.AvailabilityView, error) {
	return nil, nil
}

func (NoopAvailabilityCache) Set(ctx context.Context, key string, view *queries.AvailabilityView) error {
	return nil
}

func (NoopAvailabilityCache) InvalidateProvider(ctx context.Context, providerID uuid.UUID) error {
	return nil
}
