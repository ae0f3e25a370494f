package service

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"MediPay/internal/model"
	"MediPay/internal/model/dto"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}) error {
	return m.Called(ctx, key, value).Error(0)
}

// countingCatalog 统计回源次数
type countingCatalog struct {
	Catalog
	statsCalls int
	txCalls    int
}

func (c *countingCatalog) Stats(ctx context.Context) (*dto.AdminStats, error) {
	c.statsCalls++
	return c.Catalog.Stats(ctx)
}

func (c *countingCatalog) ListTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	c.txCalls++
	return c.Catalog.ListTransactions(ctx, limit)
}

func newCountingCatalog() *countingCatalog {
	now := time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)
	return &countingCatalog{Catalog: NewFixtureCatalog(func() time.Time { return now })}
}

func TestDashboardStatsCacheHit(t *testing.T) {
	ctx := context.Background()
	catalog := newCountingCatalog()
	stats := &mockCache{}

	stats.On("Get", ctx, statsCacheKey, mock.AnythingOfType("*dto.AdminStats")).
		Run(func(args mock.Arguments) {
			dest := args.Get(2).(*dto.AdminStats)
			dest.TotalClinics = 99
			dest.RevenueThisMonth = decimal.NewFromInt(1)
		}).
		Return(true, nil).Once()

	svc := NewDashboardService(catalog, stats, nil)
	got, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(99), got.TotalClinics)
	assert.Zero(t, catalog.statsCalls)
	stats.AssertExpectations(t)
}

func TestDashboardStatsCacheMissPopulates(t *testing.T) {
	ctx := context.Background()
	catalog := newCountingCatalog()
	stats := &mockCache{}

	stats.On("Get", ctx, statsCacheKey, mock.Anything).Return(false, nil).Once()
	stats.On("Set", ctx, statsCacheKey, mock.AnythingOfType("*dto.AdminStats")).Return(nil).Once()

	svc := NewDashboardService(catalog, stats, nil)
	got, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.TotalClinics)
	assert.Equal(t, 1, catalog.statsCalls)
	stats.AssertExpectations(t)
}

func TestDashboardCacheFailureFallsThrough(t *testing.T) {
	ctx := context.Background()
	catalog := newCountingCatalog()
	recent := &mockCache{}

	recent.On("Get", ctx, "3", mock.Anything).Return(false, stderrors.New("redis timeout")).Once()
	recent.On("Set", ctx, "3", mock.Anything).Return(stderrors.New("redis timeout")).Once()

	svc := NewDashboardService(catalog, nil, recent)
	txs, err := svc.RecentTransactions(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, txs, 3)
	assert.Equal(t, 1, catalog.txCalls)
	recent.AssertExpectations(t)
}

func TestDashboardRecentTransactionsLimitKey(t *testing.T) {
	ctx := context.Background()
	catalog := newCountingCatalog()
	recent := &mockCache{}

	recent.On("Get", ctx, "10", mock.Anything).Return(false, nil).Once()
	recent.On("Set", ctx, "10", mock.Anything).Return(nil).Once()

	svc := NewDashboardService(catalog, nil, recent)
	txs, err := svc.RecentTransactions(ctx, -1)
	require.NoError(t, err)
	assert.Len(t, txs, 6)
	recent.AssertExpectations(t)
}
