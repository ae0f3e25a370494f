package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"MediPay/config"
	"MediPay/internal/cache"
	"MediPay/internal/model"
	"MediPay/internal/repository"
	"MediPay/pkg/errors"
	"MediPay/pkg/logger"
	"MediPay/pkg/metrics"
	"MediPay/pkg/webhook"
	"MediPay/storage/database"
)

// 身份服务事件类型
const (
	EventUserCreated = "user.created"
	EventUserDeleted = "user.deleted"
)

// WebhookEvent 解码后的身份服务事件，只有以下三种实现
type WebhookEvent interface {
	EventType() string
}

type UserCreated struct {
	ProviderUserID string
	Email          string
	FirstName      string
	LastName       string
}

func (UserCreated) EventType() string { return EventUserCreated }

type UserDeleted struct {
	ProviderUserID string
}

func (UserDeleted) EventType() string { return EventUserDeleted }

// IgnoredEvent 本服务不关心的事件，直接确认
type IgnoredEvent struct {
	Type string
}

func (e IgnoredEvent) EventType() string { return e.Type }

// DecodeWebhookEvent 缺少 type 或必需字段时返回 WEBHOOK_PAYLOAD_INVALID
func DecodeWebhookEvent(payload []byte) (WebhookEvent, error) {
	if !gjson.ValidBytes(payload) {
		return nil, errors.WebhookPayloadInvalid.WithMessage("payload is not valid JSON")
	}

	root := gjson.ParseBytes(payload)
	eventType := root.Get("type").String()
	if eventType == "" {
		return nil, errors.WebhookPayloadInvalid.WithMessage("event type missing")
	}

	data := root.Get("data")
	switch eventType {
	case EventUserCreated:
		id := data.Get("id").String()
		email := primaryEmail(data)
		if id == "" || email == "" {
			return nil, errors.WebhookPayloadInvalid.WithMessage("user.created requires id and email")
		}
		return UserCreated{
			ProviderUserID: id,
			Email:          email,
			FirstName:      data.Get("first_name").String(),
			LastName:       data.Get("last_name").String(),
		}, nil
	case EventUserDeleted:
		id := data.Get("id").String()
		if id == "" {
			return nil, errors.WebhookPayloadInvalid.WithMessage("user.deleted requires id")
		}
		return UserDeleted{ProviderUserID: id}, nil
	default:
		return IgnoredEvent{Type: eventType}, nil
	}
}

// primaryEmail 优先取 primary_email_address_id 指向的地址，否则取第一个
func primaryEmail(data gjson.Result) string {
	addresses := data.Get("email_addresses")
	if primaryID := data.Get("primary_email_address_id").String(); primaryID != "" {
		for _, addr := range addresses.Array() {
			if addr.Get("id").String() == primaryID {
				return addr.Get("email_address").String()
			}
		}
	}
	return addresses.Get("0.email_address").String()
}

// UserMirror 本地用户表
type UserMirror interface {
	CreateIfAbsent(ctx context.Context, user *model.User) (bool, error)
	DeleteByProviderID(ctx context.Context, providerUserID string) (int64, error)
}

// DeliveryDedupe 按投递 ID 去重
type DeliveryDedupe interface {
	MarkDelivered(ctx context.Context, deliveryID string) (bool, error)
	Forget(ctx context.Context, deliveryID string) error
}

// WebhookResult 处理结果，Action 取值 created / duplicate / deleted / absent / ignored / replayed
type WebhookResult struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}

var (
	webhookService *WebhookService
	webhookOnce    sync.Once
	webhookErr     error
)

// Webhook 首次调用时根据配置构造，密钥非法时返回错误
func Webhook() (*WebhookService, error) {
	webhookOnce.Do(func() {
		if webhookService != nil {
			return
		}
		cfg := config.Cfg

		var verifier *webhook.Verifier
		verifier, webhookErr = webhook.NewVerifier(cfg.IdentityWebhookSecret, cfg.WebhookTolerance)
		if webhookErr != nil {
			return
		}
		webhookService = NewWebhookService(
			verifier,
			repository.NewUserRepository(database.DB()),
			cache.NewWebhookDedupe(cfg.WebhookDedupeTTL),
		)
	})
	return webhookService, webhookErr
}

func SetWebhook(s *WebhookService) {
	webhookService = s
}

type WebhookService struct {
	verifier *webhook.Verifier
	users    UserMirror
	dedupe   DeliveryDedupe
}

// NewWebhookService dedupe 可以为 nil
func NewWebhookService(verifier *webhook.Verifier, users UserMirror, dedupe DeliveryDedupe) *WebhookService {
	return &WebhookService{verifier: verifier, users: users, dedupe: dedupe}
}

// Handle 验签、解码、去重后分发。验签失败时不产生任何副作用。
func (s *WebhookService) Handle(ctx context.Context, payload []byte, headers webhook.Headers) (*WebhookResult, error) {
	if err := s.verifier.Verify(payload, headers); err != nil {
		logger.Logger.Warn("Rejected identity webhook",
			zap.String("delivery_id", headers.ID),
			zap.Error(err),
		)
		metrics.RecordWebhookEvent(ctx, "unknown", "signature_invalid")
		return nil, errors.WebhookSignatureInvalid.WithMessage("%s", err.Error())
	}

	event, err := DecodeWebhookEvent(payload)
	if err != nil {
		metrics.RecordWebhookEvent(ctx, "unknown", "payload_invalid")
		return nil, err
	}

	if s.dedupe != nil {
		first, err := s.dedupe.MarkDelivered(ctx, headers.ID)
		switch {
		case err != nil:
			logger.Logger.Warn("Webhook dedupe unavailable, processing anyway",
				zap.String("delivery_id", headers.ID),
				zap.Error(err),
			)
		case !first:
			metrics.RecordWebhookEvent(ctx, event.EventType(), "replayed")
			return &WebhookResult{Type: event.EventType(), Action: "replayed"}, nil
		}
	}

	result, err := s.dispatch(ctx, event)
	if err != nil {
		if s.dedupe != nil {
			if ferr := s.dedupe.Forget(ctx, headers.ID); ferr != nil && !stderrors.Is(ferr, cache.ErrCacheDisabled) {
				logger.Logger.Warn("Failed to clear webhook dedupe marker",
					zap.String("delivery_id", headers.ID),
					zap.Error(ferr),
				)
			}
		}
		metrics.RecordWebhookEvent(ctx, event.EventType(), "store_failed")
		return nil, err
	}

	metrics.RecordWebhookEvent(ctx, event.EventType(), result.Action)
	logger.Logger.Info("Identity webhook processed",
		zap.String("delivery_id", headers.ID),
		zap.String("type", result.Type),
		zap.String("action", result.Action),
	)
	return result, nil
}

func (s *WebhookService) dispatch(ctx context.Context, event WebhookEvent) (*WebhookResult, error) {
	switch e := event.(type) {
	case UserCreated:
		created, err := s.users.CreateIfAbsent(ctx, &model.User{
			ProviderUserID: e.ProviderUserID,
			Email:          e.Email,
			FirstName:      e.FirstName,
			LastName:       e.LastName,
		})
		if err != nil {
			return nil, errors.WebhookStoreFailed.WithMessage("failed to insert user: %v", err)
		}
		action := "created"
		if !created {
			action = "duplicate"
		}
		return &WebhookResult{Type: e.EventType(), Action: action}, nil

	case UserDeleted:
		n, err := s.users.DeleteByProviderID(ctx, e.ProviderUserID)
		if err != nil {
			return nil, errors.WebhookStoreFailed.WithMessage("failed to delete user: %v", err)
		}
		action := "deleted"
		if n == 0 {
			action = "absent"
		}
		return &WebhookResult{Type: e.EventType(), Action: action}, nil

	case IgnoredEvent:
		return &WebhookResult{Type: e.Type, Action: "ignored"}, nil

	default:
		return nil, fmt.Errorf("unhandled webhook event %T", event)
	}
}
