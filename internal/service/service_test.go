package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"MediPay/pkg/snowflake"
	"MediPay/storage/database"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	require.NoError(t, snowflake.Init(1, 1))
	return db
}

// recordingPublisher 记录投递的同步消息
type recordingPublisher struct {
	err      error
	messages []publishedSync
}

type publishedSync struct {
	UserID string
	Step   int
	Source string
}

func (p *recordingPublisher) PublishMetadataSync(ctx context.Context, userID string, step int, source string) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, publishedSync{UserID: userID, Step: step, Source: source})
	return nil
}
