// Package cache implements the short-TTL response cache fronting C8's
// snapshot/top10/heatmap read APIs (SPEC_FULL.md domain stack). Absence of
// Redis degrades to direct computation, never to an error.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisClient wraps redis.Client. A nil client (Redis unreachable at boot)
// is valid: every method degrades to a no-op/miss rather than panicking.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient dials host:port and pings it; returns nil on any failure
// so callers can run without a cache.
func NewRedisClient(host, port, password string) *RedisClient {
	addr := fmt.Sprintf("%s:%s", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("redis unreachable, read API cache disabled")
		return nil
	}

	log.Info().Str("addr", addr).Msg("connected to redis")
	return &RedisClient{client: client}
}

// Set stores value as JSON under key with the given expiration.
func (r *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if r == nil || r.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

// Get unmarshals the cached value at key into dest, returning an error on
// a cache miss or if no client is available.
func (r *RedisClient) Get(ctx context.Context, key string, dest interface{}) error {
	if r == nil || r.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

// Delete removes key.
func (r *RedisClient) Delete(ctx context.Context, key string) error {
	if r == nil || r.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return r.client.Del(ctx, key).Err()
}

// Close releases the underlying connection pool.
func (r *RedisClient) Close() error {
	if r != nil && r.client != nil {
		return r.client.Close()
	}
	return nil
}
