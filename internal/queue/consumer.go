package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"MediPay/config"
	"MediPay/internal/model"
	"MediPay/pkg/errors"
	"MediPay/pkg/logger"
	"MediPay/storage/mq"
)

// MetadataSyncer 由 service 层实现，worker 启动时注入
type MetadataSyncer interface {
	SyncMetadata(ctx context.Context, userID string, step int) error
}

var metadataSyncer MetadataSyncer

func SetMetadataSyncer(s MetadataSyncer) {
	metadataSyncer = s
}

var publishDelayed = mq.PublishDelayedMessage

// retryDelay 第 attempt 次重试前的等待时间，按 base 翻倍，不超过 limit
func retryDelay(attempt int, base, limit time.Duration) time.Duration {
	d := base
	for i := 1; i < attempt && d < limit; i++ {
		d *= 2
	}
	if d > limit {
		d = limit
	}
	return d
}

// handleMetadataSync 格式错误的消息直接确认丢弃。身份服务写入失败时确认原消息，
// 经延迟交换机按退避重投；重试次数用尽后丢弃，由对账任务兜底。
func handleMetadataSync(ctx context.Context, body []byte) error {
	var msg model.MetadataSyncMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return &errors.SkipMessageError{Reason: fmt.Sprintf("malformed metadata sync message: %v", err)}
	}
	if msg.UserID == "" || msg.LastCompletedStep < 0 {
		return &errors.SkipMessageError{Reason: "metadata sync message missing user id or step"}
	}

	if metadataSyncer == nil {
		return fmt.Errorf("metadata syncer not configured")
	}

	err := metadataSyncer.SyncMetadata(ctx, msg.UserID, msg.LastCompletedStep)
	if err == nil {
		logger.Logger.Info("Metadata sync applied",
			zap.String("message_id", msg.MessageID),
			zap.String("user_id", msg.UserID),
			zap.Int("step", msg.LastCompletedStep),
			zap.String("source", msg.Source),
			zap.Int("attempt", msg.Attempt),
		)
		return nil
	}

	return scheduleRetry(ctx, msg, err)
}

func scheduleRetry(ctx context.Context, msg model.MetadataSyncMessage, cause error) error {
	msg.Attempt++
	if msg.Attempt >= config.Cfg.MetadataSyncMaxAttempts {
		return &errors.SkipMessageError{
			Reason: fmt.Sprintf("metadata sync for %s gave up after %d attempts: %v", msg.UserID, msg.Attempt, cause),
		}
	}

	delay := retryDelay(msg.Attempt, config.Cfg.MetadataSyncBaseDelay, config.Cfg.MetadataSyncMaxDelay)
	if err := publishDelayed(ctx, ExchangeOnboardingDelayed, RoutingKeyMetadataSync, msg.MessageID, delay, msg); err != nil {
		// 延迟投递不可用时退回 broker 重新入队
		logger.Logger.Error("Failed to schedule metadata sync retry",
			zap.String("message_id", msg.MessageID),
			zap.String("user_id", msg.UserID),
			zap.Error(err),
		)
		return fmt.Errorf("sync failed (%v) and retry not scheduled: %w", cause, err)
	}

	logger.Logger.Warn("Metadata sync attempt failed, retry scheduled",
		zap.String("message_id", msg.MessageID),
		zap.String("user_id", msg.UserID),
		zap.Int("attempt", msg.Attempt),
		zap.Duration("delay", delay),
		zap.Error(cause),
	)
	return nil
}

func StartMetadataSyncConsumer(ctx context.Context) error {
	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         QueueMetadataSync,
		ConsumerTag:   "metadata_sync_consumer",
		PrefetchCount: 10,
		Handler:       handleMetadataSync,
	})
}

// StartAllConsumers 阻塞直到所有消费者退出
func StartAllConsumers(ctx context.Context) {
	var wg sync.WaitGroup

	consumers := []struct {
		name     string
		consumer func(context.Context) error
	}{
		{"metadata_sync", StartMetadataSyncConsumer},
	}

	for _, c := range consumers {
		wg.Add(1)
		go func(name string, consumer func(context.Context) error) {
			defer wg.Done()

			logger.Logger.Info("Starting consumer", zap.String("consumer_name", name))

			if err := consumer(ctx); err != nil {
				logger.Logger.Error("Consumer exited with error",
					zap.String("consumer_name", name),
					zap.Error(err),
				)
			}
		}(c.name, c.consumer)
	}

	wg.Wait()

	logger.Logger.Info("All consumers stopped")
}
