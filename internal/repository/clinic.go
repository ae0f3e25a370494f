package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"MediPay/internal/model"
	"MediPay/internal/model/dto"
	pkgerrors "MediPay/pkg/errors"
)

type ClinicRepository struct {
	db *gorm.DB
}

func NewClinicRepository(db *gorm.DB) *ClinicRepository {
	return &ClinicRepository{db: db}
}

func (r *ClinicRepository) List(ctx context.Context, filter dto.ClinicFilter) ([]model.Clinic, int64, error) {
	page := filter.Pagination.Normalize()

	q := r.db.WithContext(ctx).Clauses(dbresolver.Read).Model(&model.Clinic{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(city) LIKE ? OR LOWER(specialty) LIKE ?", like, like, like)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var clinics []model.Clinic
	err := q.Order("name ASC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&clinics).Error
	return clinics, total, err
}

func (r *ClinicRepository) GetByPublicID(ctx context.Context, publicID string) (*model.Clinic, error) {
	var clinic model.Clinic
	err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&clinic).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrRecordNotFound
		}
		return nil, err
	}
	return &clinic, nil
}

func (r *ClinicRepository) Create(ctx context.Context, clinic *model.Clinic) error {
	return r.db.WithContext(ctx).Create(clinic).Error
}

// Save 按主键整行更新
func (r *ClinicRepository) Save(ctx context.Context, clinic *model.Clinic) error {
	return r.db.WithContext(ctx).Save(clinic).Error
}

func (r *ClinicRepository) DeleteByPublicID(ctx context.Context, publicID string) error {
	result := r.db.WithContext(ctx).Where("public_id = ?", publicID).Delete(&model.Clinic{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrRecordNotFound
	}
	return nil
}
