package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	redis "github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "automation:metrics:"

// RedisSource reads pre-computed metric counters from Redis. A background
// job in the host application keeps the counters current; the source only
// reads them, so threshold polling stays cheap.
type RedisSource struct {
	client    redis.UniversalClient
	keyPrefix string
	logger    *slog.Logger
}

// NewRedisSource connects to Redis and verifies the connection.
func NewRedisSource(ctx context.Context, logger *slog.Logger, redisURL string) (*RedisSource, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(options)

	err = client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewRedisSourceFromClient(client, logger), nil
}

// NewRedisSourceFromClient wraps an existing client, mostly for tests.
func NewRedisSourceFromClient(client redis.UniversalClient, logger *slog.Logger) *RedisSource {
	return &RedisSource{
		client:    client,
		keyPrefix: defaultKeyPrefix,
		logger:    logger.With("module", "metrics_redis"),
	}
}

// Query reads the counter for the named metric. A missing key counts as 0
// with a warning; a present but non-numeric value is an error.
func (s *RedisSource) Query(ctx context.Context, metric string) (float64, error) {
	raw, err := s.client.Get(ctx, s.keyPrefix+metric).Result()
	if errors.Is(err, redis.Nil) {
		s.logger.Warn("Metric counter not found, returning 0", "metric", metric)

		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("failed to read metric %q: %w", metric, err)
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("metric %q holds non-numeric value %q: %w", metric, raw, err)
	}

	return value, nil
}

// Close closes the Redis connection.
func (s *RedisSource) Close() error {
	return s.client.Close()
}
