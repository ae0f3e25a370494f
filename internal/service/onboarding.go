package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"MediPay/config"
	"MediPay/internal/cache"
	"MediPay/internal/model"
	"MediPay/internal/model/dto"
	"MediPay/internal/queue"
	"MediPay/internal/repository"
	"MediPay/pkg/errors"
	"MediPay/pkg/identity"
	"MediPay/pkg/logger"
	"MediPay/pkg/metrics"
	"MediPay/storage/database"
)

// OnboardingStore 引导进度的持久化
type OnboardingStore interface {
	Upsert(ctx context.Context, userID string, data []byte, step int) error
	Get(ctx context.Context, userID string) (*model.PartialOnboarding, error)
	MarkSynced(ctx context.Context, userID string, step int) error
	ListUnsynced(ctx context.Context, limit int) ([]model.PartialOnboarding, error)
}

// MetadataSyncPublisher 身份服务写入失败后投递重试消息
type MetadataSyncPublisher interface {
	PublishMetadataSync(ctx context.Context, userID string, step int, source string) error
}

// SyncPendingMarker 记录用户是否已有同步消息在途，避免重复投递
type SyncPendingMarker interface {
	MarkPending(ctx context.Context, userID string) (bool, error)
	Clear(ctx context.Context, userID string) error
}

var (
	onboardingService *OnboardingService
	onboardingOnce    sync.Once
)

func Onboarding() *OnboardingService {
	onboardingOnce.Do(func() {
		if onboardingService == nil {
			onboardingService = NewOnboardingService(
				repository.NewOnboardingRepository(database.DB()),
				identity.GetProvider(),
				queue.NewProducer(),
			).WithPendingMarker(cache.NewSyncPending(config.Cfg.MetadataSyncPendingTTL))
		}
	})
	return onboardingService
}

// SetOnboarding 替换全局实例，测试或自定义装配时使用
func SetOnboarding(s *OnboardingService) {
	onboardingService = s
}

// OnboardingService 引导进度保存在本地库，lastCompletedStep 和 onboardingComplete
// 同时写入身份服务 metadata，会话 token 里的 claims 由此而来。
type OnboardingService struct {
	store     OnboardingStore
	provider  identity.Provider
	publisher MetadataSyncPublisher
	pending   SyncPendingMarker
}

// NewOnboardingService publisher 可以为 nil，此时 metadata 写入失败不会排队重试
func NewOnboardingService(store OnboardingStore, provider identity.Provider, publisher MetadataSyncPublisher) *OnboardingService {
	return &OnboardingService{store: store, provider: provider, publisher: publisher}
}

// WithPendingMarker 设置在途标记，未设置时每次失败都会投递
func (s *OnboardingService) WithPendingMarker(m SyncPendingMarker) *OnboardingService {
	s.pending = m
	return s
}

// SavePartial 保存引导快照并同步 lastCompletedStep。
// 本地写入成功而身份服务写入失败时返回 ONBOARDING_METADATA_SYNC_FAILED，data_saved 为 true。
func (s *OnboardingService) SavePartial(
	ctx context.Context,
	userID string,
	data json.RawMessage,
	lastCompletedStep *int,
) (*dto.SavePartialOnboardingResponse, error) {
	if userID == "" {
		return nil, errors.Unauthenticated
	}
	if lastCompletedStep == nil || *lastCompletedStep < 0 {
		return nil, errors.OnboardingStepInvalid.WithMessage("last_completed_step must be a non-negative integer")
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, errors.OnboardingStepInvalid.WithMessage("data must be a JSON object")
	}
	step := *lastCompletedStep

	if err := s.store.Upsert(ctx, userID, data, step); err != nil {
		logger.Logger.Error("Failed to save partial onboarding",
			zap.String("user_id", userID),
			zap.Int("step", step),
			zap.Error(err),
		)
		metrics.RecordOnboardingSave(ctx, "store_failed")
		return nil, errors.OnboardingStoreWriteFailed.WithMessage("%s", err.Error())
	}

	_, err := identity.ReadModifyWrite(ctx, s.provider, userID, identity.Metadata{
		identity.KeyLastCompletedStep: step,
	})
	if err != nil {
		logger.Logger.Warn("Onboarding data saved but metadata update failed",
			zap.String("user_id", userID),
			zap.Int("step", step),
			zap.Error(err),
		)
		metrics.RecordOnboardingSave(ctx, "metadata_failed")

		queued := s.enqueueSync(ctx, userID, step, queue.SourceSave)
		return nil, errors.WithDetails(errors.OnboardingMetadataSyncFailed, map[string]interface{}{
			"data_saved":   true,
			"retry_queued": queued,
		})
	}

	if err := s.store.MarkSynced(ctx, userID, step); err != nil {
		// 对账任务会补发一次同步，结果一致
		logger.Logger.Warn("Failed to mark onboarding metadata synced",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	metrics.RecordOnboardingSave(ctx, "ok")
	return &dto.SavePartialOnboardingResponse{
		Success:           true,
		LastCompletedStep: step,
		MetadataSynced:    true,
	}, nil
}

func (s *OnboardingService) enqueueSync(ctx context.Context, userID string, step int, source string) bool {
	if s.publisher == nil {
		return false
	}

	if s.pending != nil {
		first, err := s.pending.MarkPending(ctx, userID)
		switch {
		case err != nil && !stderrors.Is(err, cache.ErrCacheDisabled):
			logger.Logger.Warn("Sync pending marker unavailable, publishing anyway",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		case err == nil && !first:
			// worker 同步时读取本地最新步骤，在途消息已经覆盖这次变更
			logger.Logger.Debug("Metadata sync already pending",
				zap.String("user_id", userID),
				zap.String("source", source),
			)
			return false
		}
	}

	if err := s.publisher.PublishMetadataSync(ctx, userID, step, source); err != nil {
		logger.Logger.Error("Failed to enqueue metadata sync",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		s.clearPending(ctx, userID)
		return false
	}
	return true
}

func (s *OnboardingService) clearPending(ctx context.Context, userID string) {
	if s.pending == nil {
		return
	}
	if err := s.pending.Clear(ctx, userID); err != nil && !stderrors.Is(err, cache.ErrCacheDisabled) {
		logger.Logger.Warn("Failed to clear sync pending marker",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

// GetPartial 返回已保存的快照，没有记录时返回空对象
func (s *OnboardingService) GetPartial(ctx context.Context, userID string) (*dto.PartialOnboardingData, error) {
	if userID == "" {
		return nil, errors.Unauthenticated
	}

	record, err := s.store.Get(ctx, userID)
	if err != nil {
		if stderrors.Is(err, errors.ErrRecordNotFound) {
			return &dto.PartialOnboardingData{Data: json.RawMessage(`{}`)}, nil
		}
		return nil, fmt.Errorf("failed to load partial onboarding: %w", err)
	}

	return &dto.PartialOnboardingData{
		Data:              json.RawMessage(record.Data),
		LastCompletedStep: record.LastCompletedStep,
		ResumeStep:        record.LastCompletedStep + 1,
		Exists:            true,
	}, nil
}

// Complete status 为 false 时直接返回，不检查登录态也不访问任何外部依赖
func (s *OnboardingService) Complete(ctx context.Context, userID string, status bool) (*dto.CompleteOnboardingResponse, error) {
	if !status {
		return &dto.CompleteOnboardingResponse{
			Completed: false,
			Message:   "onboarding not completed",
		}, nil
	}
	if userID == "" {
		return nil, errors.Unauthenticated
	}

	updated, err := identity.ReadModifyWrite(ctx, s.provider, userID, identity.Metadata{
		identity.KeyOnboardingComplete: true,
	})
	if err != nil {
		logger.Logger.Error("Failed to mark onboarding complete",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		metrics.RecordOnboardingCompletion(ctx, "failed")
		return nil, errors.OnboardingCompleteFailed
	}

	metrics.RecordOnboardingCompletion(ctx, "ok")
	logger.Logger.Info("Onboarding completed", zap.String("user_id", userID))

	return &dto.CompleteOnboardingResponse{
		Completed:              true,
		Metadata:               updated,
		SessionRefreshRequired: true,
	}, nil
}

// SyncMetadata 以本地记录的步骤为准写入身份服务，记录不存在时使用传入的步骤
func (s *OnboardingService) SyncMetadata(ctx context.Context, userID string, step int) error {
	record, err := s.store.Get(ctx, userID)
	switch {
	case err == nil:
		step = record.LastCompletedStep
	case !stderrors.Is(err, errors.ErrRecordNotFound):
		return fmt.Errorf("failed to load partial onboarding: %w", err)
	}

	if _, err := identity.ReadModifyWrite(ctx, s.provider, userID, identity.Metadata{
		identity.KeyLastCompletedStep: step,
	}); err != nil {
		metrics.RecordMetadataSync(ctx, "worker", "failed")
		return err
	}
	metrics.RecordMetadataSync(ctx, "worker", "ok")
	s.clearPending(ctx, userID)

	if record == nil {
		return nil
	}
	return s.store.MarkSynced(ctx, userID, step)
}

// Status 本地步骤与身份服务不一致时以本地为准
func (s *OnboardingService) Status(ctx context.Context, userID string) (*dto.OnboardingStatusData, error) {
	if userID == "" {
		return nil, errors.Unauthenticated
	}

	md, err := s.provider.GetMetadata(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity metadata: %w", err)
	}

	status := &dto.OnboardingStatusData{OnboardingComplete: md.OnboardingComplete()}
	if step, ok := md.LastCompletedStep(); ok {
		status.LastCompletedStep = step
		status.ResumeStep = step + 1
	}

	record, err := s.store.Get(ctx, userID)
	switch {
	case err == nil:
		status.LastCompletedStep = record.LastCompletedStep
		status.ResumeStep = record.LastCompletedStep + 1
	case !stderrors.Is(err, errors.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to load partial onboarding: %w", err)
	}

	return status, nil
}

// Reconcile 为身份服务 metadata 落后的记录补发同步消息，返回投递成功的数量
func (s *OnboardingService) Reconcile(ctx context.Context, limit int) (int, error) {
	if s.publisher == nil {
		return 0, fmt.Errorf("metadata sync publisher not configured")
	}

	records, err := s.store.ListUnsynced(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list unsynced onboarding rows: %w", err)
	}

	published := 0
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return published, err
		}
		if s.enqueueSync(ctx, r.UserID, r.LastCompletedStep, queue.SourceReconcile) {
			published++
		}
	}

	if len(records) > 0 {
		logger.Logger.Info("Reconcile pass finished",
			zap.Int("unsynced", len(records)),
			zap.Int("published", published),
		)
	}
	return published, nil
}
