package thread

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisFragmentCache keeps thread fragments in redis. A nil cache is a no-op.
type RedisFragmentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// constructor for RedisFragmentCache, redisURL is a redis:// url
func NewRedisFragmentCache(redisURL, password string, ttl time.Duration) (*RedisFragmentCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisFragmentCacheFromClient(rdb, ttl), nil
}

func NewRedisFragmentCacheFromClient(client *redis.Client, ttl time.Duration) *RedisFragmentCache {
	return &RedisFragmentCache{client: client, ttl: ttl}
}

func (r *RedisFragmentCache) Get(ctx context.Context, key string) (string, bool, error) {
	if r == nil || r.client == nil {
		return "", false, nil
	}
	html, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return html, true, nil
}

func (r *RedisFragmentCache) Set(ctx context.Context, key string, html string) error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Set(ctx, key, html, r.ttl).Err()
}

func (r *RedisFragmentCache) Delete(ctx context.Context, key string) error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Del(ctx, key).Err()
}

func (r *RedisFragmentCache) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
