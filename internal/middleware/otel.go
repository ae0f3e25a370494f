package middleware

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/config"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"MediPay/pkg/logger"
)

var (
	httpServerRequestTotal   metric.Int64Counter
	httpServerDuration       metric.Float64Histogram
	httpServerActiveRequests metric.Int64UpDownCounter

	httpMetricsOnce sync.Once
)

// toValidUTF8 用户可控字符串中的非法 UTF-8 会导致导出失败
func toValidUTF8(val string) string {
	return strings.ToValidUTF8(val, "")
}

// initHTTPMetrics 使用全局 meter，SetMeterProvider 之前创建的指标会自动转发
func initHTTPMetrics() {
	httpMetricsOnce.Do(func() {
		meter := otel.Meter("medipay-http")
		var err error

		if httpServerRequestTotal, err = meter.Int64Counter(
			"http.server.requests.total",
			metric.WithDescription("Total number of HTTP requests"),
			metric.WithUnit("{request}"),
		); err != nil {
			logger.Logger.Warn("Failed to create http request counter", zap.Error(err))
		}

		if httpServerDuration, err = meter.Float64Histogram(
			"http.server.duration",
			metric.WithDescription("HTTP request duration"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
		); err != nil {
			logger.Logger.Warn("Failed to create http duration histogram", zap.Error(err))
		}

		if httpServerActiveRequests, err = meter.Int64UpDownCounter(
			"http.server.active_requests",
			metric.WithDescription("Number of active HTTP requests"),
			metric.WithUnit("{request}"),
		); err != nil {
			logger.Logger.Warn("Failed to create active request counter", zap.Error(err))
		}
	})
}

// OpenTelemetryMiddleware 记录 HTTP 指标，并把用户与请求 ID 写到当前 span 上。
// span 本身由 hertz tracing 中间件创建。
func OpenTelemetryMiddleware() app.HandlerFunc {
	initHTTPMetrics()

	return func(ctx context.Context, c *app.RequestContext) {
		startTime := time.Now()
		if httpServerActiveRequests != nil {
			httpServerActiveRequests.Add(ctx, 1)
			defer httpServerActiveRequests.Add(ctx, -1)
		}

		c.Next(ctx)

		// 路由模板而不是原始路径，避免 id 撑爆指标基数
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		statusCode := c.Response.StatusCode()

		if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
			if userID, ok := GetUserID(ctx, c); ok {
				span.SetAttributes(attribute.String("enduser.id", toValidUTF8(userID)))
			}
			if requestID := GetRequestID(c); requestID != "" {
				span.SetAttributes(attribute.String("http.request_id", toValidUTF8(requestID)))
			}
		}

		labels := metric.WithAttributes(
			semconv.HTTPMethod(toValidUTF8(string(c.Method()))),
			semconv.HTTPRoute(toValidUTF8(route)),
			semconv.HTTPStatusCode(statusCode),
		)
		if httpServerRequestTotal != nil {
			httpServerRequestTotal.Add(ctx, 1, labels)
		}
		if httpServerDuration != nil {
			httpServerDuration.Record(ctx, time.Since(startTime).Seconds(), labels)
		}
	}
}

// NewServerTracerConfig 返回 hertz server 的追踪选项和对应中间件
func NewServerTracerConfig(opts ...hertztracing.Option) (config.Option, app.HandlerFunc) {
	tracer, cfg := hertztracing.NewServerTracer(opts...)
	return tracer, hertztracing.ServerMiddleware(cfg)
}
