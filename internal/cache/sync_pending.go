package cache

import (
	"context"
	"time"

	"MediPay/storage/redis"
)

const syncPendingPrefix = "onboarding:sync:pending"

// SyncPending 标记某个用户已有 metadata 同步消息在途
type SyncPending struct {
	ttl time.Duration
}

func NewSyncPending(ttl time.Duration) *SyncPending {
	return &SyncPending{ttl: ttl}
}

// MarkPending 首次标记返回 true；Redis 不可用时返回 ErrCacheDisabled
func (p *SyncPending) MarkPending(ctx context.Context, userID string) (bool, error) {
	if !redis.Ready() {
		return true, ErrCacheDisabled
	}
	return redis.Client().SetNX(ctx, redis.Key(syncPendingPrefix, userID), 1, p.ttl).Result()
}

func (p *SyncPending) Clear(ctx context.Context, userID string) error {
	if !redis.Ready() {
		return ErrCacheDisabled
	}
	return redis.Client().Del(ctx, redis.Key(syncPendingPrefix, userID)).Err()
}
