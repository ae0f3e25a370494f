package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"MediPay/internal/model"
	"MediPay/pkg/logger"
	"MediPay/storage/mq"
)

var publish = mq.PublishMessage

// Producer 发布 metadata 同步消息
type Producer struct{}

func NewProducer() *Producer {
	return &Producer{}
}

// PublishMetadataSync 投递一次身份服务 metadata 重试
func (p *Producer) PublishMetadataSync(ctx context.Context, userID string, step int, source string) error {
	msg := model.MetadataSyncMessage{
		MessageID:         uuid.NewString(),
		UserID:            userID,
		LastCompletedStep: step,
		Source:            source,
		EnqueuedAt:        time.Now().UTC(),
	}

	if err := publish(ctx, ExchangeOnboarding, RoutingKeyMetadataSync, msg.MessageID, msg); err != nil {
		logger.Logger.Error("Failed to publish metadata sync message",
			zap.String("user_id", userID),
			zap.Int("step", step),
			zap.String("source", source),
			zap.Error(err),
		)
		return fmt.Errorf("publish metadata sync: %w", err)
	}

	logger.Logger.Info("Published metadata sync message",
		zap.String("message_id", msg.MessageID),
		zap.String("user_id", userID),
		zap.Int("step", step),
		zap.String("source", source),
	)

	return nil
}
