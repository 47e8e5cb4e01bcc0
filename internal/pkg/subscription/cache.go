package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PennyFox/internal/pkg/cache"
)

const stateKeyPrefix = "subscription:state:"

// StateCache stores subscription snapshots between requests.
type StateCache interface {
	load(ctx context.Context, userID uint) (snapshot, bool, error)
	store(ctx context.Context, snap snapshot) error
	Invalidate(ctx context.Context, userID uint) error
}

// RedisStateCache keeps snapshots in Redis with a fixed TTL.
type RedisStateCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStateCache(client *redis.Client, ttl time.Duration) *RedisStateCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisStateCache{client: client, ttl: ttl}
}

func stateKey(userID uint) string {
	return fmt.Sprintf("%s%d", stateKeyPrefix, userID)
}

func (c *RedisStateCache) load(ctx context.Context, userID uint) (snapshot, bool, error) {
	var snap snapshot
	ok, err := cache.GetJSON(ctx, c.client, stateKey(userID), &snap)
	return snap, ok, err
}

func (c *RedisStateCache) store(ctx context.Context, snap snapshot) error {
	return cache.SetJSON(ctx, c.client, stateKey(snap.UserID), snap, c.ttl)
}

func (c *RedisStateCache) Invalidate(ctx context.Context, userID uint) error {
	return cache.Delete(ctx, c.client, stateKey(userID))
}
