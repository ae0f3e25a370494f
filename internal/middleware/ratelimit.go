package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"MediPay/config"
	"MediPay/pkg/errors"
	"MediPay/pkg/logger"
	"MediPay/pkg/response"
	"MediPay/storage/redis"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// 时间窗口
	Window time.Duration
	// 时间窗口内最大请求数
	MaxRequests int
	// 限流键前缀
	KeyPrefix string
	// 是否按用户ID限流（需要认证）
	ByUserID bool
}

// WebhookRateLimitConfig 身份服务回调按来源 IP 限流
func WebhookRateLimitConfig() RateLimitConfig {
	rps := config.Cfg.RateLimitRPS
	if rps <= 0 {
		rps = 100
	}
	return RateLimitConfig{
		Window:      time.Second,
		MaxRequests: rps,
		KeyPrefix:   "rate:webhook",
	}
}

// WindowCounter 记录一次请求并返回窗口内的请求数
type WindowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int, error)
}

// RedisWindowCounter zset 滑动窗口，redis 不可用时返回 errLimiterUnavailable
type RedisWindowCounter struct {
	client func() *redislib.Client
	now    func() time.Time
}

var errLimiterUnavailable = fmt.Errorf("rate limiter backend unavailable")

func NewRedisWindowCounter() *RedisWindowCounter {
	return &RedisWindowCounter{client: redis.Client, now: time.Now}
}

func (r *RedisWindowCounter) Hit(ctx context.Context, key string, window time.Duration) (int, error) {
	if !redis.Ready() {
		return 0, errLimiterUnavailable
	}

	now := r.now()
	windowStart := now.Add(-window)

	pipe := r.client().Pipeline()
	// 先移除窗口之外的记录
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, key, redislib.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})
	zcardCmd := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window+10*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to execute pipeline: %w", err)
	}
	return int(zcardCmd.Val()), nil
}

// RateLimiter 限流器
type RateLimiter struct {
	config  RateLimitConfig
	counter WindowCounter
}

func NewRateLimiter(cfg RateLimitConfig, counter WindowCounter) *RateLimiter {
	return &RateLimiter{config: cfg, counter: counter}
}

func (rl *RateLimiter) getKey(ctx context.Context, c *app.RequestContext) string {
	if rl.config.ByUserID {
		if userID, exists := GetUserID(ctx, c); exists {
			return redis.Key(rl.config.KeyPrefix, "user", userID)
		}
	}
	return redis.Key(rl.config.KeyPrefix, "ip", c.ClientIP())
}

// RateLimitMiddleware 计数后端出错时放行，只记日志
func RateLimitMiddleware(cfg RateLimitConfig, counter WindowCounter) app.HandlerFunc {
	limiter := NewRateLimiter(cfg, counter)

	return func(ctx context.Context, c *app.RequestContext) {
		if !config.Cfg.RateLimitEnabled {
			c.Next(ctx)
			return
		}

		count, err := limiter.counter.Hit(ctx, limiter.getKey(ctx, c), cfg.Window)
		if err != nil {
			if err != errLimiterUnavailable {
				logger.Logger.Warn("Rate limit check failed, allowing request", zap.Error(err))
			}
			c.Next(ctx)
			return
		}

		remaining := cfg.MaxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Response.Header.Set("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > cfg.MaxRequests {
			logger.Logger.Warn("Rate limit exceeded",
				zap.String("path", string(c.Path())),
				zap.String("client_ip", c.ClientIP()),
				zap.Int("count", count),
			)
			response.AbortWithError(ctx, c, errors.TooManyRequests)
			return
		}

		c.Next(ctx)
	}
}

// WebhookRateLimitMiddleware 用于 /api/webhooks/*
func WebhookRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(WebhookRateLimitConfig(), NewRedisWindowCounter())
}
