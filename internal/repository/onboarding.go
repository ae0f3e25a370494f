package repository

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"

	"MediPay/internal/model"
	pkgerrors "MediPay/pkg/errors"
)

type OnboardingRepository struct {
	db *gorm.DB
}

func NewOnboardingRepository(db *gorm.DB) *OnboardingRepository {
	return &OnboardingRepository{db: db}
}

// Upsert 以 user_id 为冲突键整体替换 data 和 last_completed_step
func (r *OnboardingRepository) Upsert(ctx context.Context, userID string, data []byte, step int) error {
	record := &model.PartialOnboarding{
		UserID:            userID,
		Data:              datatypes.JSON(data),
		LastCompletedStep: step,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "last_completed_step", "updated_at"}),
	}).Create(record).Error
}

// Get 写后读，固定走主库
func (r *OnboardingRepository) Get(ctx context.Context, userID string) (*model.PartialOnboarding, error) {
	var record model.PartialOnboarding
	err := r.db.WithContext(ctx).Clauses(dbresolver.Write).
		Where("user_id = ?", userID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

// MarkSynced 记录身份服务已写入的步骤
func (r *OnboardingRepository) MarkSynced(ctx context.Context, userID string, step int) error {
	return r.db.WithContext(ctx).Model(&model.PartialOnboarding{}).
		Where("user_id = ?", userID).
		Update("synced_step", step).Error
}

// ListUnsynced 返回身份服务 metadata 落后于本地步骤的记录
func (r *OnboardingRepository) ListUnsynced(ctx context.Context, limit int) ([]model.PartialOnboarding, error) {
	var records []model.PartialOnboarding
	err := r.db.WithContext(ctx).
		Where("synced_step IS NULL OR synced_step <> last_completed_step").
		Order("updated_at ASC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
