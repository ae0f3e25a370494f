package model

import (
	"time"
)

// BaseModel 时间由 gorm 填充，不依赖数据库默认值，便于在 sqlite 上测试
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"-"`
}
