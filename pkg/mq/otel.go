package mq

import (
	"context"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	// RabbitMQ 相关指标
	mqMessagesTotal   metric.Int64Counter
	mqMessageDuration metric.Float64Histogram
	instrumentsOnce   sync.Once
)

func initInstruments() {
	instrumentsOnce.Do(func() {
		meter := otel.Meter("medipay.rabbitmq")

		mqMessagesTotal, _ = meter.Int64Counter(
			"mq.messages.total",
			metric.WithDescription("Total number of RabbitMQ messages"),
			metric.WithUnit("{message}"),
		)
		mqMessageDuration, _ = meter.Float64Histogram(
			"mq.message.duration",
			metric.WithDescription("RabbitMQ publish and handle duration"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5),
		)
	})
}

func tracer() trace.Tracer {
	return otel.Tracer("medipay.rabbitmq")
}

// MessageHeaderCarrier 实现 propagation.TextMapCarrier 接口
type MessageHeaderCarrier struct {
	Headers amqp.Table
}

func (m *MessageHeaderCarrier) Get(key string) string {
	if val, ok := m.Headers[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func (m *MessageHeaderCarrier) Set(key, value string) {
	if m.Headers == nil {
		m.Headers = make(amqp.Table)
	}
	m.Headers[key] = value
}

func (m *MessageHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(m.Headers))
	for k := range m.Headers {
		keys = append(keys, k)
	}
	return keys
}

// StartPublish 创建发布 span，并把追踪上下文注入消息头
func StartPublish(ctx context.Context, exchange, routingKey string, headers amqp.Table) (context.Context, trace.Span, amqp.Table) {
	initInstruments()

	ctx, span := tracer().Start(ctx, "rabbitmq.publish "+routingKey,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystem("rabbitmq"),
			attribute.String("messaging.rabbitmq.exchange", exchange),
			semconv.MessagingRabbitmqDestinationRoutingKey(routingKey),
		),
	)

	carrier := &MessageHeaderCarrier{Headers: make(amqp.Table, len(headers)+2)}
	for k, v := range headers {
		carrier.Headers[k] = v
	}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	return ctx, span, carrier.Headers
}

// StartConsume 从消息头恢复追踪上下文并创建处理 span
func StartConsume(ctx context.Context, queue string, msg amqp.Delivery) (context.Context, trace.Span) {
	initInstruments()

	ctx = otel.GetTextMapPropagator().Extract(ctx, &MessageHeaderCarrier{Headers: msg.Headers})
	return tracer().Start(ctx, "rabbitmq.process "+queue,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystem("rabbitmq"),
			attribute.String("messaging.rabbitmq.queue", queue),
			semconv.MessagingRabbitmqDestinationRoutingKey(msg.RoutingKey),
			semconv.MessagingMessageID(msg.MessageId),
		),
	)
}

// Finish 结束 span 并记录指标，operation 为 publish 或 consume
func Finish(ctx context.Context, span trace.Span, operation, destination string, start time.Time, err error) {
	defer span.End()

	status := "success"
	if err != nil {
		status = "error"
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	labels := metric.WithAttributes(
		attribute.String("messaging.operation", operation),
		attribute.String("messaging.destination", destination),
		attribute.String("messaging.status", status),
	)
	mqMessagesTotal.Add(ctx, 1, labels)
	mqMessageDuration.Record(ctx, time.Since(start).Seconds(), labels)
}
