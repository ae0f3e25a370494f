package cache

import (
	"context"
	"time"

	"MediPay/storage/redis"
)

// 分布式锁，多个 scheduler 实例同时运行时保证对账只有一个在跑
const lockPrefix = "lock"

func TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return redis.Client().SetNX(ctx, redis.Key(lockPrefix, key), 1, ttl).Result()
}

func Unlock(ctx context.Context, key string) error {
	return redis.Client().Del(ctx, redis.Key(lockPrefix, key)).Err()
}
