package cache

import (
	"context"
	"errors"
	"zoom-lms-api/core/constants"
	"zoom-lms-api/core/logger"

	"github.com/redis/go-redis/v9"
)

// ICache is the subset of cache operations the modules use.
type ICache interface {
	SetOAuthState(ctx context.Context, state string, redirect string) error
	ConsumeOAuthState(ctx context.Context, state string) (string, bool, error)
	Close() error
}

type Cache struct {
	client *redis.Client
}

type CacheConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewCache(cfg CacheConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Error("Cache:NewCache:Ping:Error", "error", err, "addr", cfg.Addr)
		return nil, err
	}

	logger.Info("Redis cache initialized", "addr", cfg.Addr, "db", cfg.DB)
	return &Cache{client: client}, nil
}

// SetOAuthState stores the redirect target under a short-lived state nonce.
func (c *Cache) SetOAuthState(ctx context.Context, state string, redirect string) error {
	err := c.client.Set(ctx, constants.RedisKeyOAuthState+state, redirect, constants.OAuthStateTTL).Err()
	if err != nil {
		logger.Error("Cache:SetOAuthState:Error", "error", err)
	}
	return err
}

// ConsumeOAuthState fetches and deletes the redirect stored for a state
// nonce. The second return value is false when the nonce is unknown or
// already used.
func (c *Cache) ConsumeOAuthState(ctx context.Context, state string) (string, bool, error) {
	key := constants.RedisKeyOAuthState + state
	redirect, err := c.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		logger.Error("Cache:ConsumeOAuthState:Error", "error", err)
		return "", false, err
	}
	return redirect, true, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}
