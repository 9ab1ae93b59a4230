package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"scrim-tracker/internal/config"
	"scrim-tracker/internal/constants"
)

// Client is the secondary store of the dual-write scheme. Entities are stored
// as JSON under "<entity-type>:<id>" with a per-entity TTL; a cache miss is
// never an error.
type Client struct {
	rdb    *redis.Client
	logger zerolog.Logger
}

func New(cfg *config.Config, logger zerolog.Logger) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), constants.CacheTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis not reachable, cache writes will fail until it is")
	} else {
		logger.Info().Str("addr", cfg.RedisAddr).Msg("redis connected")
	}

	return &Client{rdb: rdb, logger: logger}
}

func (c *Client) Set(ctx context.Context, entityType, id string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s for cache: %w", entityType, err)
	}

	key := cacheKey(entityType, id)
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}

	c.logger.Debug().Str("key", key).Dur("ttl", ttl).Msg("entity cached")
	return nil
}

// Get unmarshals the cached entity into dest. The second return is false on
// a miss.
func (c *Client) Get(ctx context.Context, entityType, id string, dest any) (bool, error) {
	key := cacheKey(entityType, id)
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s from cache: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached %s: %w", key, err)
	}
	return true, nil
}

func (c *Client) Delete(ctx context.Context, entityType, id string) error {
	return c.rdb.Del(ctx, cacheKey(entityType, id)).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func cacheKey(entityType, id string) string {
	return entityType + ":" + id
}
