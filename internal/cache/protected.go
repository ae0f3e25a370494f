package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	ri "github.com/redis/go-redis/v9"

	"MediPay/config"
	"MediPay/storage/redis"
)

var (
	ErrBreakerOpen   = errors.New("circuit breaker open")
	ErrCacheDisabled = errors.New("cache disabled")
)

// ProtectedCache Redis JSON 缓存，失败由熔断器兜底，调用方遇到错误应回源
type ProtectedCache struct {
	client    func() ri.Cmdable
	breaker   *CircuitBreaker
	keyPrefix string
	ttl       time.Duration
}

func NewProtectedCache(keyPrefix string, ttl time.Duration) *ProtectedCache {
	return &ProtectedCache{
		keyPrefix: keyPrefix,
		ttl:       ttl,
		breaker:   NewCircuitBreaker(keyPrefix, 5, 30*time.Second),
		client:    defaultClient,
	}
}

func defaultClient() ri.Cmdable {
	if !redis.Ready() {
		return nil
	}
	return redis.Client()
}

func (pc *ProtectedCache) Set(ctx context.Context, key string, value interface{}) error {
	client := pc.client()
	if client == nil {
		return ErrCacheDisabled
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return pc.breaker.Call(func() error {
		return client.Set(ctx, redis.Key(pc.keyPrefix, key), data, pc.ttl).Err()
	})
}

// Get 未命中返回 false, nil
func (pc *ProtectedCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	client := pc.client()
	if client == nil {
		return false, ErrCacheDisabled
	}

	var data []byte
	err := pc.breaker.Call(func() error {
		var err error
		data, err = client.Get(ctx, redis.Key(pc.keyPrefix, key)).Bytes()
		if errors.Is(err, ri.Nil) {
			return nil
		}
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to get cache: %w", err)
	}
	if data == nil {
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (pc *ProtectedCache) Delete(ctx context.Context, key string) error {
	client := pc.client()
	if client == nil {
		return ErrCacheDisabled
	}

	return pc.breaker.Call(func() error {
		return client.Del(ctx, redis.Key(pc.keyPrefix, key)).Err()
	})
}

// 仪表盘缓存，TTL 与前端轮询间隔一致
var (
	StatsCache              = NewProtectedCache("dashboard:stats", config.Cfg.StatsCacheTTL)
	RecentTransactionsCache = NewProtectedCache("dashboard:transactions", config.Cfg.RecentTxCacheTTL)
)
