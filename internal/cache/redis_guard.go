package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisGuard(rdb *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{rdb: rdb, ttl: ttl}
}

func (g *RedisGuard) FirstDispatch(ctx context.Context, notificationID string) (bool, error) {
	key := fmt.Sprintf("notified:%s", notificationID)
	return g.rdb.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
}
