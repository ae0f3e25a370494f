package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"MediPay/config"
	"MediPay/internal/queue"
	"MediPay/internal/service"
	"MediPay/pkg/identity"
	"MediPay/pkg/logger"
	"MediPay/pkg/metrics"
	"MediPay/storage"
	"MediPay/storage/mq"
)

func main() {
	logger.Init()
	defer logger.Sync()

	if err := config.Validate(); err != nil {
		logger.Logger.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if err := metrics.InitMetrics(); err != nil {
		logger.Logger.Warn("Failed to initialize business metrics", zap.Error(err))
	}

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := mq.DeclareTopology(queue.Bindings()...); err != nil {
		logger.Logger.Fatal("Failed to declare message topology", zap.Error(err))
	}

	if err := identity.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize identity provider", zap.Error(err))
	}

	// 所有同步消息都落到 OnboardingService.SyncMetadata
	queue.SetMetadataSyncer(service.Onboarding())

	logger.Logger.Info("Worker service starting",
		zap.String("service", config.Cfg.ServiceName+"-worker"),
		zap.String("environment", config.Cfg.Environment),
	)

	queue.StartAllConsumers(ctx)

	logger.Logger.Info("Worker service shutting down gracefully")
}
