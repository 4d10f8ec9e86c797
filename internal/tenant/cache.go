package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache holds resolved tenant contexts keyed by API key.
type Cache interface {
	Get(ctx context.Context, apiKey string) (*Context, bool, error)
	Set(ctx context.Context, apiKey string, t *Context, ttl time.Duration) error
	Delete(ctx context.Context, apiKey string) error
}

const cacheKeyPrefix = "tenant:ctx:"

type RedisCache struct {
	client redis.Cmdable
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, apiKey string) (*Context, bool, error) {
	data, err := r.client.Get(ctx, cacheKeyPrefix+apiKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("tenant cache get: %w", err)
	}

	var t Context
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, false, fmt.Errorf("tenant cache decode: %w", err)
	}
	t.APIKey = apiKey
	return &t, true, nil
}

func (r *RedisCache) Set(ctx context.Context, apiKey string, t *Context, ttl time.Duration) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("tenant cache encode: %w", err)
	}
	if err := r.client.Set(ctx, cacheKeyPrefix+apiKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("tenant cache set: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, apiKey string) error {
	if err := r.client.Del(ctx, cacheKeyPrefix+apiKey).Err(); err != nil {
		return fmt.Errorf("tenant cache delete: %w", err)
	}
	return nil
}
