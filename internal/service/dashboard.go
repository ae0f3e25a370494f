package service

import (
	"context"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"MediPay/internal/cache"
	"MediPay/internal/model"
	"MediPay/internal/model/dto"
	"MediPay/pkg/logger"
	"MediPay/pkg/metrics"
)

// JSONCache 仪表盘使用的缓存，错误一律视为未命中
type JSONCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

const statsCacheKey = "admin"

var (
	dashboardService *DashboardService
	dashboardOnce    sync.Once
)

func Dashboard() *DashboardService {
	dashboardOnce.Do(func() {
		if dashboardService == nil {
			dashboardService = NewDashboardService(DefaultCatalog(), cache.StatsCache, cache.RecentTransactionsCache)
		}
	})
	return dashboardService
}

func SetDashboard(s *DashboardService) {
	dashboardService = s
}

type DashboardService struct {
	catalog Catalog
	stats   JSONCache
	recent  JSONCache
}

func NewDashboardService(catalog Catalog, stats, recent JSONCache) *DashboardService {
	return &DashboardService{catalog: catalog, stats: stats, recent: recent}
}

func (s *DashboardService) Stats(ctx context.Context) (*dto.AdminStats, error) {
	var cached dto.AdminStats
	if s.lookup(ctx, "stats", s.stats, statsCacheKey, &cached) {
		return &cached, nil
	}

	stats, err := s.catalog.Stats(ctx)
	if err != nil {
		return nil, err
	}

	s.store(ctx, "stats", s.stats, statsCacheKey, stats)
	return stats, nil
}

func (s *DashboardService) RecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	limit = normalizeTxLimit(limit)
	key := strconv.Itoa(limit)

	var cached []model.Transaction
	if s.lookup(ctx, "transactions", s.recent, key, &cached) {
		return cached, nil
	}

	txs, err := s.catalog.ListTransactions(ctx, limit)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []model.Transaction{}
	}

	s.store(ctx, "transactions", s.recent, key, txs)
	return txs, nil
}

func (s *DashboardService) lookup(ctx context.Context, name string, c JSONCache, key string, dest interface{}) bool {
	if c == nil {
		return false
	}

	hit, err := c.Get(ctx, key, dest)
	if err != nil {
		logger.Logger.Debug("Dashboard cache lookup failed, falling back", zap.String("cache", name), zap.Error(err))
		hit = false
	}
	metrics.RecordCacheLookup(ctx, name, hit)
	return hit
}

func (s *DashboardService) store(ctx context.Context, name string, c JSONCache, key string, value interface{}) {
	if c == nil {
		return
	}
	if err := c.Set(ctx, key, value); err != nil {
		logger.Logger.Debug("Failed to populate dashboard cache", zap.String("cache", name), zap.Error(err))
	}
}
