package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"MediPay/internal/model"
	"MediPay/internal/model/dto"
	pkgerrors "MediPay/pkg/errors"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) ListPlans(ctx context.Context, filter dto.PaymentPlanFilter) ([]model.PaymentPlan, int64, error) {
	page := filter.Pagination.Normalize()

	q := r.db.WithContext(ctx).Clauses(dbresolver.Read).Model(&model.PaymentPlan{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.ClinicID != "" {
		q = q.Where("clinic_id = ?", filter.ClinicID)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var plans []model.PaymentPlan
	err := q.Order("created_at DESC, id DESC").Offset(page.Offset()).Limit(page.PageSize).Find(&plans).Error
	return plans, total, err
}

func (r *PaymentRepository) GetPlan(ctx context.Context, publicID string) (*model.PaymentPlan, error) {
	var plan model.PaymentPlan
	if err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrRecordNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *PaymentRepository) CreatePlan(ctx context.Context, plan *model.PaymentPlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *PaymentRepository) ListClaims(ctx context.Context, filter dto.ClaimFilter) ([]model.Claim, int64, error) {
	page := filter.Pagination.Normalize()

	q := r.db.WithContext(ctx).Clauses(dbresolver.Read).Model(&model.Claim{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.ClinicID != "" {
		q = q.Where("clinic_id = ?", filter.ClinicID)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var claims []model.Claim
	err := q.Order("submitted_at DESC, id DESC").Offset(page.Offset()).Limit(page.PageSize).Find(&claims).Error
	return claims, total, err
}

func (r *PaymentRepository) GetClaim(ctx context.Context, publicID string) (*model.Claim, error) {
	var claim model.Claim
	if err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&claim).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrRecordNotFound
		}
		return nil, err
	}
	return &claim, nil
}

// UpdateClaimStatus 以旧状态为条件更新，并发修改时返回 ErrRecordNotFound
func (r *PaymentRepository) UpdateClaimStatus(ctx context.Context, claim *model.Claim, from model.ClaimStatus) error {
	result := r.db.WithContext(ctx).Model(&model.Claim{}).
		Where("public_id = ? AND status = ?", claim.PublicID, from).
		Updates(map[string]interface{}{
			"status":        claim.Status,
			"processed_at":  claim.ProcessedAt,
			"denial_reason": claim.DenialReason,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrRecordNotFound
	}
	return nil
}

// RecentTransactions 按发生时间倒序
func (r *PaymentRepository) RecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := r.db.WithContext(ctx).Clauses(dbresolver.Read).
		Order("occurred_at DESC, id DESC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}
