package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV is a Redis-backed KV.
type RedisKV struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds configuration for the Redis store.
type RedisConfig struct {
	URL       string // Redis connection URL (e.g., "redis://localhost:6379")
	KeyPrefix string // Prefix for all keys (default: "blocktl:")
}

// NewRedisKV connects to Redis and verifies the connection.
func NewRedisKV(ctx context.Context, cfg RedisConfig) (*RedisKV, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewRedisKVFromClient(client, cfg.KeyPrefix), nil
}

// NewRedisKVFromClient creates a RedisKV from an existing Redis client.
func NewRedisKVFromClient(client *redis.Client, keyPrefix string) *RedisKV {
	if keyPrefix == "" {
		keyPrefix = "blocktl:"
	}
	return &RedisKV{client: client, keyPrefix: keyPrefix}
}

// Get implements KV.
func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set implements KV.
func (r *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, r.keyPrefix+key, value, ttl).Err()
}

// Delete implements KV.
func (r *RedisKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = r.keyPrefix + key
	}
	return r.client.Del(ctx, full...).Err()
}

// Incr implements KV. INCR and EXPIRE run in one MULTI/EXEC so a counter is
// never left without an expiry.
func (r *RedisKV) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	full := r.keyPrefix + key
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, full)
		if ttl > 0 {
			pipe.Expire(ctx, full, ttl)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Close closes the Redis connection.
func (r *RedisKV) Close() error {
	return r.client.Close()
}

// Ping tests the Redis connection.
func (r *RedisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Verify RedisKV implements KV
var _ KV = (*RedisKV)(nil)
