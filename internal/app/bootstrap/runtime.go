package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/aurora-whatsapp-relay/internal/config"
	"github.com/wolfman30/aurora-whatsapp-relay/internal/events"
	"github.com/wolfman30/aurora-whatsapp-relay/pkg/logging"
)

// ProcessedTracker remembers webhook deliveries that were already accepted.
type ProcessedTracker interface {
	AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

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
		_ = client.Close()
		return nil
	}
	return client
}

// BuildProcessedTracker picks the Redis-backed tracker when a client is
// available and the in-memory one otherwise.
func BuildProcessedTracker(redisClient *redis.Client, logger *logging.Logger) ProcessedTracker {
	if logger == nil {
		logger = logging.Default()
	}
	if redisClient == nil {
		logger.Info("webhook dedup using in-memory tracker")
		return events.NewMemoryProcessedStore(events.DefaultProcessedTTL)
	}
	logger.Info("webhook dedup using redis tracker")
	return events.NewProcessedStore(redisClient, events.DefaultProcessedTTL)
}
