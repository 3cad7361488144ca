// Package bootstrap wires the runtime dependencies main needs: the Redis
// client and the event bus variant picked by configuration.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/mbctherapy/clinic-dashboard/internal/config"
	"github.com/mbctherapy/clinic-dashboard/internal/events"
	"github.com/mbctherapy/clinic-dashboard/internal/observability/metrics"
	"github.com/mbctherapy/clinic-dashboard/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildEventBus returns the bus the config asks for. EVENT_BUS=redis
// requires a reachable Redis; when the ping fails the bus falls back to
// in-process dispatch so a single instance still works.
func BuildEventBus(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, m *metrics.BusMetrics) events.Bus {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg != nil && cfg.EventBus == "redis" {
		if client := BuildRedisClient(ctx, cfg, logger, true); client != nil {
			logger.Info("using redis event bus", "addr", cfg.RedisAddr)
			return events.NewRedisBus(client, logger, m)
		}
		logger.Warn("redis event bus requested but unavailable, using in-process bus")
	}
	return events.NewMemoryBus(logger, m)
}
