package cache

import (
	"context"
	"time"

	"MediPay/storage/redis"
)

const webhookDeliveryPrefix = "webhook:delivery"

// WebhookDedupe 按投递 ID 去重，同一投递在 ttl 内只处理一次
type WebhookDedupe struct {
	ttl time.Duration
}

func NewWebhookDedupe(ttl time.Duration) *WebhookDedupe {
	return &WebhookDedupe{ttl: ttl}
}

// MarkDelivered 首次见到该 ID 返回 true；Redis 不可用时返回错误，由调用方决定是否继续
func (d *WebhookDedupe) MarkDelivered(ctx context.Context, deliveryID string) (bool, error) {
	if !redis.Ready() {
		return true, ErrCacheDisabled
	}
	return redis.Client().SetNX(ctx, redis.Key(webhookDeliveryPrefix, deliveryID), 1, d.ttl).Result()
}

// Forget 处理失败时删除标记，允许身份服务重投
func (d *WebhookDedupe) Forget(ctx context.Context, deliveryID string) error {
	if !redis.Ready() {
		return ErrCacheDisabled
	}
	return redis.Client().Del(ctx, redis.Key(webhookDeliveryPrefix, deliveryID)).Err()
}
