package model

import "time"

// MetadataSyncMessage 重试写入身份服务 lastCompletedStep 的消息
type MetadataSyncMessage struct {
	MessageID         string    `json:"message_id"` // 消息唯一ID，用于幂等性检查
	UserID            string    `json:"user_id"`
	LastCompletedStep int       `json:"last_completed_step"`
	Source            string    `json:"source"` // save, reconcile
	Attempt           int       `json:"attempt"`
	EnqueuedAt        time.Time `json:"enqueued_at"`
}
