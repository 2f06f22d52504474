package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBlobCache stores opaque payloads under a key prefix with a fixed TTL.
// It lets several service instances share one download of large static datasets.
type RedisBlobCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisBlobCache(client *redis.Client, prefix string, ttl time.Duration) *RedisBlobCache {
	return &RedisBlobCache{client: client, prefix: prefix, ttl: ttl}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (r *RedisBlobCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if r.client == nil {
		return nil, false, errors.New("blob cache: redis client is nil")
	}

	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get blob cache key=%q: %w", key, err)
	}
	return b, true, nil
}

func (r *RedisBlobCache) Set(ctx context.Context, key string, value []byte) error {
	if r.client == nil {
		return errors.New("blob cache: redis client is nil")
	}

	if err := r.client.Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("set blob cache key=%q: %w", key, err)
	}
	return nil
}
