package bootstrap

import (
	"context"
	"log/slog"

	"studio-booking/internal/infra/cache"
	"studio-booking/internal/pkg/config"
	"studio-booking/internal/usecase/commands"
	"studio-booking/internal/usecase/queries"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var RedisModule = fx.Module("redis",
	fx.Provide(
		NewAvailabilityCache,
		func(c availabilityCache) queries.AvailabilityCache { return c },
		func(c availabilityCache) commands.AvailabilityInvalidator { return c },
	),
)

// availabilityCache joins the read and invalidation surfaces so one provider
// covers both ports.
type availabilityCache interface {
	queries.AvailabilityCache
	commands.AvailabilityInvalidator
}

func NewAvailabilityCache(lc fx.Lifecycle, cfg config.Config) availabilityCache {
	if !cfg.Redis.Enabled {
		slog.Info("availability cache disabled")
		return cache.NewNoopAvailabilityCache()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	slog.Info("availability cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	return cache.NewRedisAvailabilityCache(client, cfg.Redis.CacheTTL)
}
