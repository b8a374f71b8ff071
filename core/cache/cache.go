package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"booking-gateway/core/config"
	"booking-gateway/core/constants"
	"booking-gateway/core/logger"

	"github.com/redis/go-redis/v9"
)

type Cache interface {
	// OAuth state tokens (one-time use, short TTL)
	SaveOAuthState(ctx context.Context, state string) error
	ConsumeOAuthState(ctx context.Context, state string) (bool, error)

	// Per-day busy interval cache
	GetBusyIntervals(ctx context.Context, key string, dest any) (bool, error)
	SetBusyIntervals(ctx context.Context, key string, value any) error

	// Refresh lock: single-flight token refreshes across processes
	AcquireRefreshLock(ctx context.Context, credentialID string) (bool, error)
	ReleaseRefreshLock(ctx context.Context, credentialID string) error

	Ping(ctx context.Context) error
	Close() error
}

type redisCache struct {
	client *redis.Client
}

func NewCache(cfg config.RedisConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &redisCache{client: client}, nil
}

// NewCacheWithClient wraps an existing client. Intended for tests.
func NewCacheWithClient(client *redis.Client) Cache {
	return &redisCache{client: client}
}

func (c *redisCache) SaveOAuthState(ctx context.Context, state string) error {
	key := constants.RedisKeyOAuthState + state
	return c.client.Set(ctx, key, "1", constants.OAuthStateTTL).Err()
}

// ConsumeOAuthState validates and deletes the state token in one step so a
// replayed callback cannot reuse it.
func (c *redisCache) ConsumeOAuthState(ctx context.Context, state string) (bool, error) {
	key := constants.RedisKeyOAuthState + state
	deleted, err := c.client.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}

func (c *redisCache) GetBusyIntervals(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, constants.RedisKeyBusyCache+key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		logger.Warn("Cache:GetBusyIntervals:UnmarshalError", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (c *redisCache) SetBusyIntervals(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal busy intervals: %w", err)
	}
	return c.client.Set(ctx, constants.RedisKeyBusyCache+key, raw, constants.BusyCacheTTL).Err()
}

func (c *redisCache) AcquireRefreshLock(ctx context.Context, credentialID string) (bool, error) {
	key := constants.RedisKeyRefreshLock + credentialID
	return c.client.SetNX(ctx, key, "1", constants.RefreshLockTTL).Result()
}

func (c *redisCache) ReleaseRefreshLock(ctx context.Context, credentialID string) error {
	return c.client.Del(ctx, constants.RedisKeyRefreshLock+credentialID).Err()
}

func (c *redisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
