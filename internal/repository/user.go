package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"MediPay/internal/model"
	pkgerrors "MediPay/pkg/errors"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateIfAbsent provider_user_id 已存在时不做任何修改，返回 false
func (r *UserRepository) CreateIfAbsent(ctx context.Context, user *model.User) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_user_id"}},
		DoNothing: true,
	}).Create(user)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteByProviderID 物理删除，返回删除的行数
func (r *UserRepository) DeleteByProviderID(ctx context.Context, providerUserID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("provider_user_id = ?", providerUserID).
		Delete(&model.User{})
	return result.RowsAffected, result.Error
}

func (r *UserRepository) GetByProviderID(ctx context.Context, providerUserID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("provider_user_id = ?", providerUserID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}
