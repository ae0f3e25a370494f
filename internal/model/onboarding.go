package model

import "gorm.io/datatypes"

// PartialOnboarding 引导流程的中间进度，每个用户至多一行。
// 每次保存整体替换 data 和 last_completed_step，不做字段级合并。
type PartialOnboarding struct {
	BaseModel
	UserID            string         `gorm:"uniqueIndex;type:varchar(64);not null" json:"user_id"`
	Data              datatypes.JSON `gorm:"not null" json:"data"`
	LastCompletedStep int            `gorm:"not null;default:0" json:"last_completed_step"`

	// SyncedStep 最近一次成功写入身份服务 metadata 的步骤，
	// 与 LastCompletedStep 不一致时由对账任务补发同步消息
	SyncedStep *int `gorm:"index" json:"synced_step,omitempty"`
}

func (PartialOnboarding) TableName() string {
	return "partial_onboardings"
}

// InSync 身份服务 metadata 是否已反映当前步骤
func (p *PartialOnboarding) InSync() bool {
	return p.SyncedStep != nil && *p.SyncedStep == p.LastCompletedStep
}
