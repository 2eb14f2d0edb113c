package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// keyPrefix namespaces sitekit entries in a shared Redis instance.
const keyPrefix = "sitekit:cache:"

// RedisCache stores entries in Redis, delegating TTL enforcement to the
// server.
type RedisCache struct {
	client *redis.Client
}

// NewRedis builds a RedisCache from connection parameters.
func NewRedis(addr, password string, db int) *RedisCache {
	return &RedisCache{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (c *RedisCache) Get(ctx context.Context, name string, dest interface{}) error {
	data, err := c.client.Get(ctx, keyPrefix+name).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode cache value %q: %w", name, err)
	}
	return nil
}

func (c *RedisCache) Put(ctx context.Context, name string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value %q: %w", name, err)
	}
	return c.client.Set(ctx, keyPrefix+name, data, ttl).Err()
}

func (c *RedisCache) Forget(ctx context.Context, name string) error {
	return c.client.Del(ctx, keyPrefix+name).Err()
}

func (c *RedisCache) Flush(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Ping verifies the Redis connection at startup.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
