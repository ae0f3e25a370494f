package model

import "gorm.io/datatypes"

// AccountSettings 每个管理员一行，首次保存时创建
type AccountSettings struct {
	BaseModel
	UserID            string         `gorm:"uniqueIndex;type:varchar(64);not null" json:"user_id"`
	DisplayName       string         `gorm:"type:varchar(128);not null;default:''" json:"display_name"`
	Organization      string         `gorm:"type:varchar(128);not null;default:''" json:"organization"`
	Timezone          string         `gorm:"type:varchar(64);not null;default:'America/New_York'" json:"timezone"`
	NotificationPrefs datatypes.JSON `json:"notification_prefs"`
}

func (AccountSettings) TableName() string {
	return "account_settings"
}

// Role 角色与权限，目前为静态配置
type Role struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}
