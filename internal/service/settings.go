package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/tidwall/gjson"
	"gorm.io/datatypes"

	"MediPay/internal/fixture"
	"MediPay/internal/model"
	"MediPay/internal/model/dto"
	"MediPay/internal/repository"
	"MediPay/pkg/errors"
	"MediPay/storage/database"
)

const defaultTimezone = "America/New_York"

type SettingsStore interface {
	Get(ctx context.Context, userID string) (*model.AccountSettings, error)
	Upsert(ctx context.Context, settings *model.AccountSettings) error
}

var (
	settingsService *SettingsService
	settingsOnce    sync.Once
)

func Settings() *SettingsService {
	settingsOnce.Do(func() {
		if settingsService == nil {
			settingsService = NewSettingsService(repository.NewSettingsRepository(database.DB()))
		}
	})
	return settingsService
}

func SetSettings(s *SettingsService) {
	settingsService = s
}

// SettingsService 账户设置总是写入数据库，与 DATA_SOURCE 无关
type SettingsService struct {
	store SettingsStore
}

func NewSettingsService(store SettingsStore) *SettingsService {
	return &SettingsService{store: store}
}

func toSettingsData(s *model.AccountSettings) *dto.SettingsData {
	prefs := json.RawMessage(s.NotificationPrefs)
	if len(prefs) == 0 {
		prefs = json.RawMessage(`{}`)
	}
	return &dto.SettingsData{
		UserID:            s.UserID,
		DisplayName:       s.DisplayName,
		Organization:      s.Organization,
		Timezone:          s.Timezone,
		NotificationPrefs: prefs,
	}
}

// Get 未保存过时返回默认值
func (s *SettingsService) Get(ctx context.Context, userID string) (*dto.SettingsData, error) {
	if userID == "" {
		return nil, errors.Unauthenticated
	}

	settings, err := s.store.Get(ctx, userID)
	if err != nil {
		if stderrors.Is(err, errors.ErrRecordNotFound) {
			return toSettingsData(&model.AccountSettings{UserID: userID, Timezone: defaultTimezone}), nil
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return toSettingsData(settings), nil
}

func (s *SettingsService) Update(ctx context.Context, userID string, req *dto.UpdateSettingsRequest) (*dto.SettingsData, error) {
	if userID == "" {
		return nil, errors.Unauthenticated
	}

	prefs := []byte(req.NotificationPrefs)
	if len(prefs) == 0 {
		prefs = []byte(`{}`)
	}
	if !gjson.ValidBytes(prefs) || !gjson.ParseBytes(prefs).IsObject() {
		return nil, errors.InvalidRequest.WithMessage("notification_prefs must be a JSON object")
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = defaultTimezone
	}

	settings := &model.AccountSettings{
		UserID:            userID,
		DisplayName:       req.DisplayName,
		Organization:      req.Organization,
		Timezone:          timezone,
		NotificationPrefs: datatypes.JSON(prefs),
	}
	if err := s.store.Upsert(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return toSettingsData(settings), nil
}

func (s *SettingsService) Roles() []model.Role {
	return fixture.Roles()
}
