package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics 业务指标集合
type OTelMetrics struct {
	OnboardingSavesTotal       metric.Int64Counter
	OnboardingCompletionsTotal metric.Int64Counter
	MetadataSyncTotal          metric.Int64Counter
	WebhookEventsTotal         metric.Int64Counter
	CacheLookupsTotal          metric.Int64Counter
}

var (
	metrics     *OTelMetrics
	metricsOnce sync.Once
	metricsErr  error
)

// InitMetrics 初始化业务指标。全局 meter 在 SetMeterProvider 之前创建的指标会自动转发，
// 因此未启用 OTLP 时也可以安全调用。
func InitMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.Meter("medipay")
		m := &OTelMetrics{}

		if m.OnboardingSavesTotal, metricsErr = meter.Int64Counter(
			"onboarding_saves_total",
			metric.WithDescription("Partial onboarding saves by outcome"),
			metric.WithUnit("{save}"),
		); metricsErr != nil {
			return
		}

		if m.OnboardingCompletionsTotal, metricsErr = meter.Int64Counter(
			"onboarding_completions_total",
			metric.WithDescription("Onboarding completion attempts by outcome"),
			metric.WithUnit("{completion}"),
		); metricsErr != nil {
			return
		}

		if m.MetadataSyncTotal, metricsErr = meter.Int64Counter(
			"identity_metadata_sync_total",
			metric.WithDescription("Identity metadata sync attempts by source and outcome"),
			metric.WithUnit("{sync}"),
		); metricsErr != nil {
			return
		}

		if m.WebhookEventsTotal, metricsErr = meter.Int64Counter(
			"identity_webhook_events_total",
			metric.WithDescription("Identity webhook events by kind and outcome"),
			metric.WithUnit("{event}"),
		); metricsErr != nil {
			return
		}

		if m.CacheLookupsTotal, metricsErr = meter.Int64Counter(
			"dashboard_cache_lookups_total",
			metric.WithDescription("Dashboard cache lookups by cache and result"),
			metric.WithUnit("{lookup}"),
		); metricsErr != nil {
			return
		}

		metrics = m
	})

	return metricsErr
}

// GetMetrics 获取全局指标实例，未初始化时先初始化
func GetMetrics() *OTelMetrics {
	if metrics == nil {
		_ = InitMetrics()
	}
	return metrics
}

func RecordOnboardingSave(ctx context.Context, outcome string) {
	if m := GetMetrics(); m != nil {
		m.OnboardingSavesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func RecordOnboardingCompletion(ctx context.Context, outcome string) {
	if m := GetMetrics(); m != nil {
		m.OnboardingCompletionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func RecordMetadataSync(ctx context.Context, source, outcome string) {
	if m := GetMetrics(); m != nil {
		m.MetadataSyncTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("source", source),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordWebhookEvent(ctx context.Context, kind, outcome string) {
	if m := GetMetrics(); m != nil {
		m.WebhookEventsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordCacheLookup(ctx context.Context, cache string, hit bool) {
	if m := GetMetrics(); m != nil {
		result := "miss"
		if hit {
			result = "hit"
		}
		m.CacheLookupsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("cache", cache),
			attribute.String("result", result),
		))
	}
}
