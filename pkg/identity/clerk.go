package identity

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.uber.org/zap"

	"MediPay/pkg/logger"
)

// APIError 身份服务返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("identity api returned status %d: %s", e.StatusCode, e.Body)
}

// ClerkClient 基于 Clerk Backend API 的 Provider 实现
type ClerkClient struct {
	baseURL   string
	secretKey string
	client    *client.Client
}

type clerkUser struct {
	ID             string   `json:"id"`
	PublicMetadata Metadata `json:"public_metadata"`
}

func NewClerkClient(baseURL, secretKey string, timeout time.Duration) (*ClerkClient, error) {
	if baseURL == "" {
		return nil, errors.New("identity api base url is empty")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	// netpoll 不支持 TLS，对外调用走标准库网络层
	c, err := client.NewClient(
		client.WithDialer(standard.NewDialer()),
		client.WithTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}),
		client.WithDialTimeout(timeout),
		client.WithClientReadTimeout(timeout),
		client.WithWriteTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity http client: %w", err)
	}

	return &ClerkClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    c,
	}, nil
}

// GetMetadata GET /users/{id}
func (c *ClerkClient) GetMetadata(ctx context.Context, userID string) (Metadata, error) {
	user, err := c.do(ctx, consts.MethodGet, userID, nil)
	if err != nil {
		return nil, err
	}
	return user.PublicMetadata, nil
}

// UpdateMetadata PATCH /users/{id}，public_metadata 整体替换
func (c *ClerkClient) UpdateMetadata(ctx context.Context, userID string, metadata Metadata) (Metadata, error) {
	if metadata == nil {
		metadata = Metadata{}
	}

	body, err := json.Marshal(map[string]interface{}{
		"public_metadata": metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	user, err := c.do(ctx, consts.MethodPatch, userID, body)
	if err != nil {
		return nil, err
	}
	return user.PublicMetadata, nil
}

func (c *ClerkClient) do(ctx context.Context, method, userID string, body []byte) (*clerkUser, error) {
	if userID == "" {
		return nil, errors.New("user id is empty")
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/users/" + url.PathEscape(userID))
	req.SetMethod(method)
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.SetContentTypeBytes([]byte("application/json"))
		req.SetBody(body)
	}

	start := time.Now()
	if err := c.client.Do(ctx, req, resp); err != nil {
		logger.Logger.Warn("Identity API request failed",
			zap.String("method", method),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("identity api request failed: %w", err)
	}

	status := resp.StatusCode()
	logger.Logger.Debug("Identity API request completed",
		zap.String("method", method),
		zap.String("user_id", userID),
		zap.Int("status", status),
		zap.Duration("duration", time.Since(start)),
	)

	if status < 200 || status >= 300 {
		return nil, &APIError{StatusCode: status, Body: string(resp.Body())}
	}

	var user clerkUser
	if err := json.Unmarshal(resp.Body(), &user); err != nil {
		return nil, fmt.Errorf("failed to decode identity api response: %w", err)
	}
	if user.PublicMetadata == nil {
		user.PublicMetadata = Metadata{}
	}

	return &user, nil
}
