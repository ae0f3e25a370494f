package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"MediPay/config"
	"MediPay/internal/queue"
	"MediPay/internal/schedule"
	"MediPay/pkg/identity"
	"MediPay/pkg/logger"
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

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Logger.Info("Scheduler received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage for scheduler", zap.Error(err))
	}
	defer storage.Close()

	if err := mq.DeclareTopology(queue.Bindings()...); err != nil {
		logger.Logger.Fatal("Failed to declare message topology", zap.Error(err))
	}

	// OnboardingService 构造时需要 provider，对账本身不会调用它
	if err := identity.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize identity provider", zap.Error(err))
	}

	logger.Logger.Info("Scheduler service starting",
		zap.String("service", config.Cfg.ServiceName+"-scheduler"),
		zap.String("environment", config.Cfg.Environment),
		zap.Duration("interval", config.Cfg.ReconcileInterval),
	)

	schedule.GetScheduler().Run(ctx)

	logger.Logger.Info("Scheduler service shutting down gracefully")
}
