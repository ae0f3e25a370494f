package dto

import "encoding/json"

type UpdateSettingsRequest struct {
	DisplayName       string          `json:"display_name" validate:"max=128"`
	Organization      string          `json:"organization" validate:"max=128"`
	Timezone          string          `json:"timezone" validate:"omitempty,timezone"`
	NotificationPrefs json.RawMessage `json:"notification_prefs"`
}

type SettingsData struct {
	UserID            string          `json:"user_id"`
	DisplayName       string          `json:"display_name"`
	Organization      string          `json:"organization"`
	Timezone          string          `json:"timezone"`
	NotificationPrefs json.RawMessage `json:"notification_prefs"`
}
