package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"MediPay/internal/model/dto"
	"MediPay/pkg/errors"
	"MediPay/pkg/identity"
	"MediPay/pkg/logger"
	"MediPay/pkg/token"
)

var (
	userService *UserService
	userOnce    sync.Once
)

func User() *UserService {
	userOnce.Do(func() {
		if userService == nil {
			userService = NewUserService(identity.GetProvider())
		}
	})
	return userService
}

func SetUser(s *UserService) {
	userService = s
}

// UserService 当前会话用户
type UserService struct {
	provider identity.Provider
}

func NewUserService(provider identity.Provider) *UserService {
	return &UserService{provider: provider}
}

// Me 直接使用会话中的 claims，不访问身份服务
func (s *UserService) Me(ctx context.Context, userID string, claims map[string]interface{}) (*dto.MeData, error) {
	if userID == "" {
		return nil, errors.Unauthenticated
	}

	md := identity.Metadata(claims).Clone()
	return &dto.MeData{
		UserID:             userID,
		Metadata:           md,
		OnboardingComplete: md.OnboardingComplete(),
	}, nil
}

// RefreshSession 重新读取 metadata 并签发会话 token，完成引导后调用
func (s *UserService) RefreshSession(ctx context.Context, userID string) (*dto.SessionRefreshData, error) {
	if userID == "" {
		return nil, errors.Unauthenticated
	}

	md, err := s.provider.GetMetadata(ctx, userID)
	if err != nil {
		logger.Logger.Error("Failed to read metadata for session refresh",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to read identity metadata: %w", err)
	}

	signed, expiresAt, err := token.IssueSession(userID, md)
	if err != nil {
		return nil, err
	}

	return &dto.SessionRefreshData{
		Token:     signed,
		ExpiresAt: expiresAt,
		Metadata:  md,
	}, nil
}
