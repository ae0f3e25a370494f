package middleware

import (
	"go.uber.org/zap"

	"MediPay/pkg/logger"
)

// Init 初始化所有中间件，需在 token.Init 之后调用
func Init() error {
	if err := initAuthMiddleware(); err != nil {
		logger.Logger.Error("Failed to initialize access gate", zap.Error(err))
		return err
	}

	logger.Logger.Info("All middlewares initialized successfully")
	return nil
}
