package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PennyFox/internal/pkg/env"
)

// NewClient builds a Redis client from CACHE_* settings and pings it once.
// A failed ping is logged; callers treat the cache as optional.
func NewClient() *redis.Client {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	c := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", host, port),
		Password:     env.GetEnv("CACHE_PASSWORD", ""),
		DB:           env.GetEnvInt("CACHE_DB", 0),
		DialTimeout:  env.GetEnvDuration("CACHE_DIAL_TIMEOUT", 3*time.Second),
		ReadTimeout:  env.GetEnvDuration("CACHE_READ_TIMEOUT", 2*time.Second),
		WriteTimeout: env.GetEnvDuration("CACHE_WRITE_TIMEOUT", 2*time.Second),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	pong, err := c.Ping(ctx).Result()
	if err != nil {
		log.Warnf("[Cache] Could not connect to Redis at %s: %v", c.Options().Addr, err)
	} else {
		log.Infof("[Cache] Connected to Redis: %s", pong)
	}
	return c
}

// GetJSON decodes key into out. A miss returns (false, nil).
func GetJSON(ctx context.Context, c *redis.Client, key string, out interface{}) (bool, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v as JSON under key with the given expiration.
func SetJSON(ctx context.Context, c *redis.Client, key string, v interface{}, expiration time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(ctx, key, raw, expiration).Err()
}

// Delete removes a value from the cache by key
func Delete(ctx context.Context, c *redis.Client, key string) error {
	return c.Del(ctx, key).Err()
}
