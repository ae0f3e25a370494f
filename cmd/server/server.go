package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	hconfig "github.com/cloudwego/hertz/pkg/common/config"
	"go.uber.org/zap"

	"MediPay/config"
	"MediPay/internal/middleware"
	"MediPay/internal/queue"
	"MediPay/internal/router"
	"MediPay/pkg/identity"
	"MediPay/pkg/logger"
	"MediPay/pkg/metrics"
	"MediPay/pkg/otel"
	"MediPay/pkg/snowflake"
	"MediPay/pkg/token"
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

	var serverOpts []hconfig.Option
	if config.Cfg.TracingEnabled {
		shutdown, err := otel.InitOpenTelemetry(ctx, otel.Config{
			ServiceName:    config.Cfg.ServiceName,
			ServiceVersion: config.Cfg.ServiceVersion,
			Environment:    config.Cfg.Environment,
			OTLPEndpoint:   config.Cfg.OTLPEndpoint,
			SampleRatio:    config.Cfg.TracingSampler,
		})
		if err != nil {
			logger.Logger.Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
			}
		}()
	}
	if err := metrics.InitMetrics(); err != nil {
		logger.Logger.Warn("Failed to initialize business metrics", zap.Error(err))
	}

	// 初始化存储层，记得关闭外部连接
	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	// 交换机和队列由 server 声明，保证 worker 启动前消息不会丢
	if err := mq.DeclareTopology(queue.Bindings()...); err != nil {
		logger.Logger.Fatal("Failed to declare message topology", zap.Error(err))
	}

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	if err := identity.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize identity provider", zap.Error(err))
	}

	if err := token.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize token package", zap.Error(err))
	} // token 在中间件前初始化，middleware 依赖 token

	if err := middleware.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize middlewares", zap.Error(err))
	}

	logger.Logger.Info("Server starting",
		zap.String("service", config.Cfg.ServiceName),
		zap.String("port", config.Cfg.ServerPort),
		zap.String("environment", config.Cfg.Environment),
		zap.String("data_source", config.Cfg.DataSource),
	)

	addr := net.JoinHostPort(config.Cfg.ServerHost, config.Cfg.ServerPort)
	serverOpts = append(serverOpts, server.WithHostPorts(addr))

	var tracingMiddleware app.HandlerFunc
	if config.Cfg.TracingEnabled {
		var tracer hconfig.Option
		tracer, tracingMiddleware = middleware.NewServerTracerConfig()
		serverOpts = append(serverOpts, tracer)
	}

	h := server.Default(serverOpts...)
	if tracingMiddleware != nil {
		// 必须在其他中间件之前，后续中间件才能拿到 span
		h.Use(tracingMiddleware)
	}

	router.Register(h.Engine)

	// 优雅关闭：在单独的 goroutine 中监听关闭信号并调用 Shutdown
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
	}()

	logger.Logger.Info("HTTP server listening", zap.String("addr", addr))

	h.Spin()

	logger.Logger.Info("Server shutting down gracefully")
}
