package schedule

// 对账调度器：定期找出身份服务 metadata 落后于本地记录的用户，补发同步消息

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"MediPay/config"
	"MediPay/internal/cache"
	"MediPay/internal/service"
	"MediPay/pkg/logger"
)

const reconcileLockKey = "onboarding:reconcile"

// Reconciler 由 OnboardingService 实现
type Reconciler interface {
	Reconcile(ctx context.Context, limit int) (int, error)
}

// Locker 多实例部署时保证同一时刻只有一个对账在跑
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

type redisLocker struct{}

func (redisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return cache.TryLock(ctx, key, ttl)
}

func (redisLocker) Unlock(ctx context.Context, key string) error {
	return cache.Unlock(ctx, key)
}

var (
	schedulerOnce sync.Once
	schedulerInst *ReconcileScheduler
)

func GetScheduler() *ReconcileScheduler {
	schedulerOnce.Do(func() {
		schedulerInst = NewReconcileScheduler(service.Onboarding(), redisLocker{},
			config.Cfg.ReconcileInterval, config.Cfg.ReconcileBatchSize)
	})
	return schedulerInst
}

type ReconcileScheduler struct {
	reconciler Reconciler
	locker     Locker
	interval   time.Duration
	batchSize  int

	mu      sync.Mutex
	running bool
	lastRun time.Time
}

// NewReconcileScheduler locker 为 nil 时不加分布式锁
func NewReconcileScheduler(r Reconciler, locker Locker, interval time.Duration, batchSize int) *ReconcileScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	return &ReconcileScheduler{
		reconciler: r,
		locker:     locker,
		interval:   interval,
		batchSize:  batchSize,
	}
}

// RunOnce 执行一轮对账，上一轮未结束或锁被其他实例持有时跳过
func (s *ReconcileScheduler) RunOnce(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logger.Logger.Info("Reconcile job already running, skipping")
		return 0, nil
	}
	s.running = true
	s.lastRun = time.Now()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if s.locker != nil {
		acquired, err := s.locker.TryLock(ctx, reconcileLockKey, s.interval)
		if err != nil {
			return 0, err
		}
		if !acquired {
			logger.Logger.Debug("Reconcile lock held by another instance, skipping")
			return 0, nil
		}
		defer func() {
			if err := s.locker.Unlock(context.Background(), reconcileLockKey); err != nil {
				logger.Logger.Warn("Failed to release reconcile lock", zap.Error(err))
			}
		}()
	}

	return s.reconciler.Reconcile(ctx, s.batchSize)
}

func (s *ReconcileScheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// Run 阻塞直到 ctx 取消
func (s *ReconcileScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Logger.Info("Reconcile scheduler started",
		zap.Duration("interval", s.interval),
		zap.Int("batch_size", s.batchSize),
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, s.interval)
			if _, err := s.RunOnce(runCtx); err != nil {
				logger.Logger.Error("Reconcile run failed", zap.Error(err))
			}
			cancel()
		}
	}
}
