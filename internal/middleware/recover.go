package middleware

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"MediPay/config"
	"MediPay/pkg/errors"
	"MediPay/pkg/logger"
	"MediPay/pkg/response"
)

// RecoverConfig recover 中间件配置
type RecoverConfig struct {
	// 是否记录堆栈
	EnableStackTrace bool
	// 非生产环境在响应里返回 panic 内容
	ExposeDetails bool
	// 严重错误回调（可用于发送告警）
	OnSevereError func(ctx context.Context, c *app.RequestContext, err interface{}, stack []byte)
}

func NewRecoverConfig() RecoverConfig {
	return RecoverConfig{
		EnableStackTrace: true,
		ExposeDetails:    !config.Cfg.IsProduction(),
	}
}

func RecoverMiddleware() app.HandlerFunc {
	return RecoverMiddlewareWithConfig(NewRecoverConfig())
}

func RecoverMiddlewareWithConfig(cfg RecoverConfig) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				handlePanic(ctx, c, err, cfg)
			}
		}()

		c.Next(ctx)
	}
}

func handlePanic(ctx context.Context, c *app.RequestContext, err interface{}, cfg RecoverConfig) {
	var stack []byte
	if cfg.EnableStackTrace {
		stack = debug.Stack()
	}

	fields := []zap.Field{
		zap.String("panic", fmt.Sprintf("%v", err)),
		zap.String("path", string(c.Path())),
		zap.String("method", string(c.Method())),
		zap.String("client_ip", c.ClientIP()),
		zap.String("request_id", GetRequestID(c)),
	}
	if userID, exists := GetUserID(ctx, c); exists {
		fields = append(fields, zap.String("user_id", userID))
	}
	if len(stack) > 0 {
		fields = append(fields, zap.ByteString("stack", stack))
	}
	logger.Logger.Error("[PANIC RECOVERED]", fields...)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		span.RecordError(fmt.Errorf("panic: %v", err))
		span.SetStatus(codes.Error, "panic recovered")
	}

	if isSeverePanic(err) && cfg.OnSevereError != nil {
		cfg.OnSevereError(ctx, c, err, stack)
	}

	c.Abort()
	if !cfg.ExposeDetails {
		response.Error(ctx, c, errors.InternalError)
		return
	}
	response.ErrorWithDetails(ctx, c, errors.InternalError, map[string]interface{}{
		"panic": fmt.Sprintf("%v", err),
	})
}

// isSeverePanic 运行时级别的错误，通常意味着进程状态已经不可信
func isSeverePanic(err interface{}) bool {
	errStr := fmt.Sprintf("%v", err)

	for _, pattern := range []string{
		"runtime: out of memory",
		"fatal error:",
		"concurrent map writes",
		"concurrent map read and map write",
		"runtime error: makeslice:",
	} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
