// Package cache provides a Redis-backed cache for the streak summary the web
// client polls on every page load.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avelez9/habitflow/internal/badges"
	"github.com/avelez9/habitflow/internal/config"
	"github.com/avelez9/habitflow/pkg/logger"
)

// StreakSummary is the cached per-user streak snapshot.
type StreakSummary struct {
	Streak         int               `json:"streak"`
	LastStreakDate *string           `json:"last_streak_date"`
	NextBadge      *badges.Milestone `json:"next_badge"`
}

// StreakCache caches streak summaries in Redis.
type StreakCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// New connects to Redis and returns a streak cache.
func New(cfg *config.RedisConfig, ttl time.Duration, log *logger.Logger) (*StreakCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Msg("Connected to Redis")
	return &StreakCache{client: client, ttl: ttl, log: log}, nil
}

// NewWithClient wraps an existing Redis client (used with miniredis in tests).
func NewWithClient(client *redis.Client, ttl time.Duration, log *logger.Logger) *StreakCache {
	return &StreakCache{client: client, ttl: ttl, log: log}
}

func key(userID uint) string {
	return fmt.Sprintf("streak:user:%d", userID)
}

// Get returns the cached summary for a user, or nil on a miss. Redis errors
// degrade to a miss.
func (c *StreakCache) Get(ctx context.Context, userID uint) *StreakSummary {
	data, err := c.client.Get(ctx, key(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Uint("user_id", userID).Msg("Streak cache read failed")
		}
		return nil
	}

	var summary StreakSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		c.log.Warn().Err(err).Uint("user_id", userID).Msg("Corrupt streak cache entry")
		return nil
	}
	return &summary
}

// Set stores a summary for a user. Failures are logged, never propagated.
func (c *StreakCache) Set(ctx context.Context, userID uint, summary *StreakSummary) {
	data, err := json.Marshal(summary)
	if err != nil {
		c.log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to marshal streak summary")
		return
	}
	if err := c.client.Set(ctx, key(userID), data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Uint("user_id", userID).Msg("Streak cache write failed")
	}
}

// Invalidate drops a user's cached summary after the streak changed.
func (c *StreakCache) Invalidate(ctx context.Context, userID uint) {
	if err := c.client.Del(ctx, key(userID)).Err(); err != nil {
		c.log.Warn().Err(err).Uint("user_id", userID).Msg("Streak cache invalidation failed")
	}
}

// Close closes the underlying Redis connection.
func (c *StreakCache) Close() error {
	return c.client.Close()
}
