package dto

import "time"

// MeData 当前会话用户
type MeData struct {
	UserID             string                 `json:"user_id"`
	Metadata           map[string]interface{} `json:"metadata"`
	OnboardingComplete bool                   `json:"onboarding_complete"`
}

type SessionRefreshData struct {
	Token     string                 `json:"token"`
	ExpiresAt time.Time              `json:"expires_at"`
	Metadata  map[string]interface{} `json:"metadata"`
}
