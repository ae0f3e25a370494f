package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	// 服务配置
	ServerPort     string `env:"SERVER_PORT" envDefault:"8888"`
	ServerHost     string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment    string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName    string `env:"SERVICE_NAME" envDefault:"medipay"`
	ServiceVersion string `env:"SERVICE_VERSION" envDefault:"0.1.0"`

	// PostgreSQL 配置
	PostgreSQLHost       string `env:"POSTGRESQL_HOST" envDefault:"localhost"`
	PostgreSQLPort       string `env:"POSTGRESQL_PORT" envDefault:"5432"`
	PostgreSQLUser       string `env:"POSTGRESQL_USER" envDefault:"postgres"`
	PostgreSQLPassword   string `env:"POSTGRESQL_PASSWORD" envDefault:"postgres"`
	PostgreSQLDatabase   string `env:"POSTGRESQL_DATABASE" envDefault:"medipay"`
	PostgreSQLSchema     string `env:"POSTGRESQL_SCHEMA" envDefault:"public"`
	PostgreSQLSSLMode    string `env:"POSTGRESQL_SSLMODE" envDefault:"disable"`
	PostgreSQLMaxIdle    int    `env:"POSTGRESQL_MAX_IDLE" envDefault:"30"`
	PostgreSQLMaxOpen    int    `env:"POSTGRESQL_MAX_OPEN" envDefault:"200"`
	PostgreSQLReplicaDSN string `env:"POSTGRESQL_REPLICA_DSN"` // 只读副本，为空时读写都走主库

	// Redis 配置
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"medipay"`

	// RabbitMQ 配置
	RabbitMQAddr     string `env:"RABBITMQ_ADDR" envDefault:"localhost"`
	RabbitMQPort     string `env:"RABBITMQ_PORT" envDefault:"5672"`
	RabbitMQUsername string `env:"RABBITMQ_USERNAME" envDefault:"guest"`
	RabbitMQPassword string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	RabbitMQVhost    string `env:"RABBITMQ_VHOST" envDefault:"/"`

	// 会话配置，会话 JWT 由身份服务签发，本服务只校验和刷新
	SessionJWTSecret     string `env:"SESSION_JWT_SECRET"` // 必填
	SessionExpireMinutes int    `env:"SESSION_EXPIRE_MINUTES" envDefault:"60"`
	SessionCookieName    string `env:"SESSION_COOKIE_NAME" envDefault:"__session"`

	// 身份服务配置
	IdentityProvider   string        `env:"IDENTITY_PROVIDER" envDefault:"clerk"` // clerk, mock
	IdentityAPIBaseURL string        `env:"IDENTITY_API_BASE_URL" envDefault:"https://api.clerk.com/v1"`
	IdentitySecretKey  string        `env:"IDENTITY_SECRET_KEY"`
	IdentityTimeout    time.Duration `env:"IDENTITY_TIMEOUT" envDefault:"5s"`

	// Webhook 配置
	IdentityWebhookSecret string        `env:"IDENTITY_WEBHOOK_SECRET"` // 必填，whsec_ 前缀可选
	WebhookTolerance      time.Duration `env:"WEBHOOK_TOLERANCE" envDefault:"5m"`
	WebhookDedupeTTL      time.Duration `env:"WEBHOOK_DEDUPE_TTL" envDefault:"24h"`

	// 业务数据来源
	DataSource string `env:"DATA_SOURCE" envDefault:"fixture"` // fixture, store

	// 缓存配置，与前端轮询间隔保持一致
	StatsCacheTTL    time.Duration `env:"STATS_CACHE_TTL" envDefault:"15s"`
	RecentTxCacheTTL time.Duration `env:"RECENT_TX_CACHE_TTL" envDefault:"5s"`

	// 访问控制
	PublicRoutes []string `env:"PUBLIC_ROUTES" envSeparator:"," envDefault:"/login,/signup,/,/api/webhooks*,/verify-email,/forgot-password,/healthz"`
	LoginPath    string   `env:"LOGIN_PATH" envDefault:"/login"`

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	// 链路追踪配置
	TracingEnabled bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
	TracingSampler float64 `env:"TRACING_SAMPLER" envDefault:"0.1"`

	// 速率限制配置, 配置在中间件内
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     int  `env:"RATE_LIMIT_RPS" envDefault:"100"`

	// 对账配置
	ReconcileInterval  time.Duration `env:"RECONCILE_INTERVAL" envDefault:"1m"`
	ReconcileBatchSize int           `env:"RECONCILE_BATCH_SIZE" envDefault:"500"`

	// metadata 同步重试，worker 按指数退避延迟重投，用尽后交给对账任务
	MetadataSyncMaxAttempts int           `env:"METADATA_SYNC_MAX_ATTEMPTS" envDefault:"6"`
	MetadataSyncBaseDelay   time.Duration `env:"METADATA_SYNC_BASE_DELAY" envDefault:"5s"`
	MetadataSyncMaxDelay    time.Duration `env:"METADATA_SYNC_MAX_DELAY" envDefault:"5m"`
	// 同一用户有同步在途时，对账任务在这段时间内不再补发
	MetadataSyncPendingTTL time.Duration `env:"METADATA_SYNC_PENDING_TTL" envDefault:"10m"`

	// CSRF，仅对 cookie 会话的写请求生效
	CSRFEnabled bool   `env:"CSRF_ENABLED" envDefault:"false"`
	CSRFSecret  string `env:"CSRF_SECRET"`
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	Cfg = Config{}
	if err := env.Parse(&Cfg); err != nil {
		log.Fatalf("Failed to parse environment variables: %v", err)
	}
}

// Validate 在各个进程的 main 中调用，缺少必填项时直接失败
func Validate() error {
	var errs []error

	if Cfg.SessionJWTSecret == "" {
		errs = append(errs, errors.New("SESSION_JWT_SECRET is required"))
	}

	if Cfg.IdentityWebhookSecret == "" {
		errs = append(errs, errors.New("IDENTITY_WEBHOOK_SECRET is required"))
	}

	switch Cfg.IdentityProvider {
	case "clerk":
		if Cfg.IdentitySecretKey == "" {
			errs = append(errs, errors.New("IDENTITY_SECRET_KEY is required when IDENTITY_PROVIDER=clerk"))
		}
	case "mock":
		log.Printf("WARN: IDENTITY_PROVIDER=mock, metadata writes stay in memory")
	default:
		errs = append(errs, fmt.Errorf("unsupported IDENTITY_PROVIDER: %s", Cfg.IdentityProvider))
	}

	switch Cfg.DataSource {
	case "fixture", "store":
	default:
		errs = append(errs, fmt.Errorf("unsupported DATA_SOURCE: %s", Cfg.DataSource))
	}

	if Cfg.CSRFEnabled && Cfg.CSRFSecret == "" {
		errs = append(errs, errors.New("CSRF_SECRET is required when CSRF_ENABLED=true"))
	}

	if Cfg.ReconcileBatchSize <= 0 {
		errs = append(errs, errors.New("RECONCILE_BATCH_SIZE must be positive"))
	}

	if Cfg.MetadataSyncMaxAttempts <= 0 {
		errs = append(errs, errors.New("METADATA_SYNC_MAX_ATTEMPTS must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) GetDSN() string {
	return "host=" + c.PostgreSQLHost +
		" port=" + c.PostgreSQLPort +
		" user=" + c.PostgreSQLUser +
		" password=" + c.PostgreSQLPassword +
		" dbname=" + c.PostgreSQLDatabase +
		" sslmode=" + c.PostgreSQLSSLMode +
		" search_path=" + c.PostgreSQLSchema
}

func (c *Config) GetRabbitMQURL() string {
	return "amqp://" + c.RabbitMQUsername + ":" + c.RabbitMQPassword + "@" + c.RabbitMQAddr + ":" + c.RabbitMQPort + c.RabbitMQVhost
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) UseFixtureData() bool {
	return strings.EqualFold(c.DataSource, "fixture")
}
