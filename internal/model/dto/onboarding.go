package dto

import "encoding/json"

// SavePartialOnboardingRequest 保存引导进度请求
type SavePartialOnboardingRequest struct {
	Data              json.RawMessage `json:"data"`
	LastCompletedStep *int            `json:"last_completed_step"`
}

// CompleteOnboardingRequest 完成引导请求，status 为 false 时不做任何处理
type CompleteOnboardingRequest struct {
	Status bool `json:"status"`
}

type SavePartialOnboardingResponse struct {
	Success           bool `json:"success"`
	LastCompletedStep int  `json:"last_completed_step"`
	MetadataSynced    bool `json:"metadata_synced"`
}

// PartialOnboardingData 已保存的引导快照，ResumeStep 为前端应展示的步骤
type PartialOnboardingData struct {
	Data              json.RawMessage `json:"data"`
	LastCompletedStep int             `json:"last_completed_step"`
	ResumeStep        int             `json:"resume_step"`
	Exists            bool            `json:"exists"`
}

type CompleteOnboardingResponse struct {
	Metadata               map[string]interface{} `json:"metadata,omitempty"`
	Message                string                 `json:"message,omitempty"`
	Completed              bool                   `json:"completed"`
	SessionRefreshRequired bool                   `json:"session_refresh_required"`
}

type OnboardingStatusData struct {
	OnboardingComplete bool `json:"onboarding_complete"`
	LastCompletedStep  int  `json:"last_completed_step"`
	ResumeStep         int  `json:"resume_step"`
}
