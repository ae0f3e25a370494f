package identity

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"MediPay/config"
	"MediPay/pkg/logger"
)

// Provider 身份服务客户端接口，只覆盖本服务需要的 metadata 读写
type Provider interface {
	// GetMetadata 读取用户当前的 public metadata
	GetMetadata(ctx context.Context, userID string) (Metadata, error)

	// UpdateMetadata 以 metadata 整体替换用户的 public metadata，返回写入后的值
	UpdateMetadata(ctx context.Context, userID string, metadata Metadata) (Metadata, error)
}

var (
	provider     Provider
	providerOnce sync.Once
	providerErr  error
)

// Init 根据 IDENTITY_PROVIDER 初始化身份服务客户端
func Init() error {
	providerOnce.Do(func() {
		cfg := config.Cfg

		switch cfg.IdentityProvider {
		case "clerk":
			provider, providerErr = NewClerkClient(cfg.IdentityAPIBaseURL, cfg.IdentitySecretKey, cfg.IdentityTimeout)
		case "mock":
			provider = NewMockProvider()
		default:
			providerErr = fmt.Errorf("unsupported identity provider: %s", cfg.IdentityProvider)
		}

		if providerErr != nil {
			logger.Logger.Error("Failed to initialize identity provider", zap.Error(providerErr))
			return
		}

		logger.Logger.Info("Identity provider initialized successfully",
			zap.String("provider", cfg.IdentityProvider),
		)
	})

	return providerErr
}

func GetProvider() Provider {
	if provider == nil {
		panic("identity provider not initialized, call identity.Init() first")
	}
	return provider
}

// SetProvider 替换全局 provider，用于测试或自定义装配
func SetProvider(p Provider) {
	provider = p
}

// ReadModifyWrite 读取当前 metadata，合并 patch 后整体写回
func ReadModifyWrite(ctx context.Context, p Provider, userID string, patch Metadata) (Metadata, error) {
	current, err := p.GetMetadata(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	updated, err := p.UpdateMetadata(ctx, userID, current.Merge(patch))
	if err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}

	return updated, nil
}
