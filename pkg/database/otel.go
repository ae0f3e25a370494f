package database

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	instanceKeyStart = "otel:start_time"
	instanceKeySpan  = "otel:span"
)

var (
	// 数据库相关指标
	dbQueriesTotal  metric.Int64Counter
	dbQueryDuration metric.Float64Histogram
	instrumentsOnce sync.Once

	sensitiveAssignments = regexp.MustCompile(`(?i)(password|token|secret|email)\s*=\s*'[^']*'`)
)

func initInstruments() {
	instrumentsOnce.Do(func() {
		meter := otel.Meter("medipay.gorm")

		dbQueriesTotal, _ = meter.Int64Counter(
			"db.queries.total",
			metric.WithDescription("Total number of database queries"),
			metric.WithUnit("{query}"),
		)
		dbQueryDuration, _ = meter.Float64Histogram(
			"db.query.duration",
			metric.WithDescription("Database query duration"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
		)
	})
}

// OTELPlugin GORM OpenTelemetry 插件
type OTELPlugin struct {
	tracer trace.Tracer
	config PluginConfig
}

// PluginConfig 插件配置
type PluginConfig struct {
	ServiceName   string
	EnableMetrics bool
	MaxSQLLength  int
}

func DefaultPluginConfig() PluginConfig {
	return PluginConfig{
		ServiceName:   "medipay",
		EnableMetrics: true,
		MaxSQLLength:  500,
	}
}

func NewOTELPlugin(config PluginConfig) *OTELPlugin {
	if config.ServiceName == "" {
		config.ServiceName = "medipay"
	}
	if config.MaxSQLLength <= 0 {
		config.MaxSQLLength = 500
	}
	initInstruments()

	return &OTELPlugin{
		tracer: otel.Tracer(config.ServiceName + ".gorm"),
		config: config,
	}
}

// Name 实现 gorm.Plugin 接口
func (p *OTELPlugin) Name() string {
	return "otel_plugin"
}

// Initialize 注册回调
func (p *OTELPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	hooks := []struct {
		name     string
		register func(before, after string) error
	}{
		{"query", func(b, a string) error {
			if err := cb.Query().Before("gorm:query").Register(b, p.before); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register(a, p.after)
		}},
		{"create", func(b, a string) error {
			if err := cb.Create().Before("gorm:create").Register(b, p.before); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register(a, p.after)
		}},
		{"update", func(b, a string) error {
			if err := cb.Update().Before("gorm:update").Register(b, p.before); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register(a, p.after)
		}},
		{"delete", func(b, a string) error {
			if err := cb.Delete().Before("gorm:delete").Register(b, p.before); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register(a, p.after)
		}},
		{"row", func(b, a string) error {
			if err := cb.Row().Before("gorm:row").Register(b, p.before); err != nil {
				return err
			}
			return cb.Row().After("gorm:row").Register(a, p.after)
		}},
		{"raw", func(b, a string) error {
			if err := cb.Raw().Before("gorm:raw").Register(b, p.before); err != nil {
				return err
			}
			return cb.Raw().After("gorm:raw").Register(a, p.after)
		}},
	}

	for _, h := range hooks {
		if err := h.register("otel:before_"+h.name, "otel:after_"+h.name); err != nil {
			return err
		}
	}

	return nil
}

func (p *OTELPlugin) before(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := p.tracer.Start(ctx, "db."+tableName(db),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", db.Dialector.Name()),
			attribute.String("service.name", p.config.ServiceName),
		),
	)

	db.InstanceSet(instanceKeyStart, time.Now())
	db.InstanceSet(instanceKeySpan, span)
	db.Statement.Context = ctx
}

func (p *OTELPlugin) after(db *gorm.DB) {
	spanValue, ok := db.InstanceGet(instanceKeySpan)
	if !ok {
		return
	}
	span, ok := spanValue.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	operation := operationName(db)
	span.SetName(operation)

	sql := db.Statement.SQL.String()
	if len(sql) > p.config.MaxSQLLength {
		sql = sql[:p.config.MaxSQLLength] + "..."
	}
	span.SetAttributes(
		semconv.DBStatement(sensitiveAssignments.ReplaceAllString(sql, "$1='***'")),
		attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
	)

	status := "success"
	switch {
	case db.Error == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(db.Error, gorm.ErrRecordNotFound):
		span.SetStatus(codes.Ok, "record not found")
	default:
		status = "error"
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if !p.config.EnableMetrics {
		return
	}

	var duration float64
	if startValue, ok := db.InstanceGet(instanceKeyStart); ok {
		if start, ok := startValue.(time.Time); ok {
			duration = time.Since(start).Seconds()
		}
	}

	labels := metric.WithAttributes(
		attribute.String("db.operation", operation),
		attribute.String("db.table", tableName(db)),
		attribute.String("db.status", status),
	)
	ctx := db.Statement.Context
	dbQueriesTotal.Add(ctx, 1, labels)
	dbQueryDuration.Record(ctx, duration, labels)
}

func tableName(db *gorm.DB) string {
	if db.Statement.Table == "" {
		return "unknown"
	}
	return db.Statement.Table
}

// operationName 从 SQL 中提取操作类型
func operationName(db *gorm.DB) string {
	sql := strings.ToUpper(strings.TrimSpace(db.Statement.SQL.String()))
	switch {
	case sql == "":
		return "db.unknown"
	case strings.HasPrefix(sql, "SELECT"):
		return "db.select"
	case strings.HasPrefix(sql, "INSERT"):
		return "db.insert"
	case strings.HasPrefix(sql, "UPDATE"):
		return "db.update"
	case strings.HasPrefix(sql, "DELETE"):
		return "db.delete"
	default:
		return "db.query"
	}
}

// WithDefaultOTELPlugin 使用默认配置添加 OpenTelemetry 插件
func WithDefaultOTELPlugin(db *gorm.DB, serviceName string) error {
	config := DefaultPluginConfig()
	config.ServiceName = serviceName
	return db.Use(NewOTELPlugin(config))
}
