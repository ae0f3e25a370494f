package redis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	// Redis 相关指标
	redisCommandsTotal   metric.Int64Counter
	redisCommandDuration metric.Float64Histogram
	redisCacheHits       metric.Int64Counter
	redisCacheMisses     metric.Int64Counter
	instrumentsOnce      sync.Once
)

func initInstruments() {
	instrumentsOnce.Do(func() {
		meter := otel.Meter("medipay.redis")

		redisCommandsTotal, _ = meter.Int64Counter(
			"redis.commands.total",
			metric.WithDescription("Total number of Redis commands"),
			metric.WithUnit("{command}"),
		)
		redisCommandDuration, _ = meter.Float64Histogram(
			"redis.command.duration",
			metric.WithDescription("Redis command duration"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5),
		)
		redisCacheHits, _ = meter.Int64Counter(
			"redis.cache.hits",
			metric.WithDescription("Number of cache hits"),
			metric.WithUnit("{hit}"),
		)
		redisCacheMisses, _ = meter.Int64Counter(
			"redis.cache.misses",
			metric.WithDescription("Number of cache misses"),
			metric.WithUnit("{miss}"),
		)
	})
}

// TracingHook Redis 追踪 Hook
type TracingHook struct {
	tracer trace.Tracer
	attrs  []attribute.KeyValue
}

func NewTracingHook(serviceName string, db int) *TracingHook {
	initInstruments()

	return &TracingHook{
		tracer: otel.Tracer(serviceName + ".redis"),
		attrs: []attribute.KeyValue{
			semconv.DBSystemRedis,
			semconv.DBRedisDBIndex(db),
			attribute.String("service.name", serviceName),
		},
	}
}

// DialHook 实现 redis.Hook 接口
func (th *TracingHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

// ProcessHook 实现 redis.Hook 接口
func (th *TracingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, span := th.tracer.Start(ctx, "redis."+cmd.Name(),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(th.attrs...),
		)
		defer span.End()

		// 只记录键名，值可能包含会话等敏感数据
		span.SetAttributes(semconv.DBOperation(cmd.Name()))
		if keys := extractKeys(cmd.Args()); len(keys) > 0 {
			span.SetAttributes(attribute.StringSlice("redis.keys", keys))
		}

		start := time.Now()
		err := next(ctx, cmd)

		status := "success"
		switch {
		case err == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(err, redis.Nil):
			status = "not_found"
		default:
			status = "error"
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		}

		labels := metric.WithAttributes(
			attribute.String("redis.command", cmd.Name()),
			attribute.String("redis.status", status),
		)
		redisCommandsTotal.Add(ctx, 1, labels)
		redisCommandDuration.Record(ctx, time.Since(start).Seconds(), labels)

		if cmd.Name() == "get" || cmd.Name() == "mget" {
			if errors.Is(err, redis.Nil) {
				redisCacheMisses.Add(ctx, 1)
			} else if err == nil {
				redisCacheHits.Add(ctx, 1)
			}
		}

		return err
	}
}

// ProcessPipelineHook 实现 redis.Hook 接口
func (th *TracingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, span := th.tracer.Start(ctx, "redis.pipeline",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(th.attrs...),
		)
		defer span.End()

		names := make([]string, 0, len(cmds))
		for _, cmd := range cmds {
			names = append(names, cmd.Name())
		}
		span.SetAttributes(
			attribute.Int("redis.pipeline.count", len(cmds)),
			attribute.String("redis.pipeline.commands", strings.Join(names, ",")),
		)

		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			span.SetStatus(codes.Error, err.Error())
		}

		redisCommandsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("redis.command", "pipeline"),
		))

		return err
	}
}

// extractKeys 提取命令中的键名，最多 5 个
func extractKeys(args []interface{}) []string {
	if len(args) < 2 {
		return nil
	}

	keys := make([]string, 0, 1)
	for i := 1; i < len(args) && len(keys) < 5; i++ {
		key, ok := args[i].(string)
		if !ok || !strings.Contains(key, ":") {
			continue
		}
		if len(key) > 100 {
			key = key[:100] + "..."
		}
		keys = append(keys, key)
	}

	return keys
}

// InstrumentClient 为 Redis 客户端添加 OpenTelemetry 支持
func InstrumentClient(client *redis.Client, serviceName string, db int) {
	client.AddHook(NewTracingHook(serviceName, db))
}
