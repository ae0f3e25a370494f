package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"MediPay/pkg/logger"
	"MediPay/storage/database"
	"MediPay/storage/mq"
	"MediPay/storage/redis"
)

// Close 按 MQ -> Redis -> Database 的顺序关闭连接，
// 先停止收发消息，最后关闭数据库，保证进行中的写入完成
func Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Logger.Info("Closing storage connections...")

	closers := []struct {
		name  string
		close func(context.Context) error
	}{
		{"rabbitmq", mq.Close},
		{"redis", redis.Close},
		{"postgresql", database.Close},
	}

	for _, c := range closers {
		if err := c.close(ctx); err != nil {
			logger.Logger.Error("Failed to close storage connection", zap.String("component", c.name), zap.Error(err))
			continue
		}
		logger.Logger.Info("Storage connection closed", zap.String("component", c.name))
	}

	logger.Logger.Info("All storage connections closed")
}
