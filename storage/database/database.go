package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"MediPay/config"
	pkgdb "MediPay/pkg/database"
	"MediPay/pkg/logger"
)

var (
	db     *gorm.DB
	dbOnce sync.Once
	dbErr  error
)

func Init() error {
	dbOnce.Do(func() {
		cfg := config.Cfg
		gormCfg := &gorm.Config{
			Logger:                                   newLogger(),
			DisableForeignKeyConstraintWhenMigrating: true,
			PrepareStmt:                              true,
			SkipDefaultTransaction:                   true,
		}

		var gormDB *gorm.DB
		gormDB, dbErr = gorm.Open(postgres.Open(cfg.GetDSN()), gormCfg)
		if dbErr != nil {
			logger.Logger.Error("Failed to open database", zap.String("host", cfg.PostgreSQLHost), zap.Error(dbErr))
			return
		}

		// 只读副本：仪表盘等读多的查询走副本，写入及写后读显式指定主库
		if cfg.PostgreSQLReplicaDSN != "" {
			resolver := dbresolver.Register(dbresolver.Config{
				Replicas:          []gorm.Dialector{postgres.Open(cfg.PostgreSQLReplicaDSN)},
				Policy:            dbresolver.RandomPolicy{},
				TraceResolverMode: cfg.IsDevelopment(),
			}).
				SetMaxIdleConns(cfg.PostgreSQLMaxIdle).
				SetMaxOpenConns(cfg.PostgreSQLMaxOpen).
				SetConnMaxIdleTime(10 * time.Minute).
				SetConnMaxLifetime(2 * time.Hour)

			if dbErr = gormDB.Use(resolver); dbErr != nil {
				logger.Logger.Error("Failed to register read replica", zap.Error(dbErr))
				return
			}
			logger.Logger.Info("Read replica registered")
		}

		if err := pkgdb.WithDefaultOTELPlugin(gormDB, cfg.ServiceName); err != nil {
			logger.Logger.Warn("Failed to register gorm otel plugin", zap.Error(err))
		}

		sqlDB, err := gormDB.DB()
		if err != nil {
			dbErr = err
			logger.Logger.Error("Failed to get sql.DB from gorm", zap.Error(err))
			return
		}

		configureConnectionPool(sqlDB)

		if err := sqlDB.Ping(); err != nil {
			dbErr = err
			logger.Logger.Error("Failed to ping database", zap.Error(err))
			return
		}

		db = gormDB
		if err := Migrate(db); err != nil {
			dbErr = fmt.Errorf("failed to run database migration: %w", err)
			return
		}

		logger.Logger.Info("Database initialized successfully")
	})

	return dbErr
}

func DB() *gorm.DB {
	return db
}

// Ping 健康检查用
func Ping(ctx context.Context) error {
	if db == nil {
		return errors.New("database not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(ctx context.Context) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- sqlDB.Close()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func configureConnectionPool(sqlDB *sql.DB) {
	cfg := config.Cfg

	sqlDB.SetMaxIdleConns(cfg.PostgreSQLMaxIdle)
	sqlDB.SetMaxOpenConns(cfg.PostgreSQLMaxOpen)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	sqlDB.SetConnMaxLifetime(2 * time.Hour)
}

func newLogger() gormlogger.Interface {
	var level gormlogger.LogLevel
	switch config.Cfg.LoggerLevel {
	case "DEBUG":
		level = gormlogger.Info
	case "ERROR":
		level = gormlogger.Error
	default:
		level = gormlogger.Warn
	}

	return gormlogger.New(zapWriter{}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

type zapWriter struct{}

func (zapWriter) Printf(format string, args ...interface{}) {
	logger.Logger.Sugar().Infof(format, args...)
}
