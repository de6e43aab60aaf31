package models

import (
	"time"

	"gorm.io/datatypes"
)

// Device 客户端心跳与系统信息
type Device struct {
	ID         uint           `json:"id" gorm:"primarykey"`
	RustdeskID string         `json:"rustdesk_id" gorm:"column:rustdesk_id;uniqueIndex;not null;size:100"`
	UUID       string         `json:"uuid" gorm:"column:uuid;not null;default:''"`
	Hostname   string         `json:"hostname" gorm:"not null;default:''"`
	Platform   string         `json:"platform" gorm:"not null;default:''"`
	OS         string         `json:"os" gorm:"column:os;not null;default:''"`
	CPU        string         `json:"cpu" gorm:"column:cpu;not null;default:''"`
	Memory     string         `json:"memory" gorm:"not null;default:''"`
	Version    string         `json:"version" gorm:"not null;default:''"`
	Extra      datatypes.JSON `json:"extra"`
	LastOnline time.Time      `json:"last_online"`
}

func (Device) TableName() string {
	return "devices"
}

// AuditLog 审计日志，只追加
type AuditLog struct {
	ID         uint           `json:"id" gorm:"primarykey"`
	UserID     *uint          `json:"user_id" gorm:"index"`
	Action     string         `json:"action" gorm:"not null;default:'';size:50"`
	RustdeskID string         `json:"rustdesk_id" gorm:"column:rustdesk_id;not null;default:''"`
	PeerID     string         `json:"peer_id" gorm:"not null;default:''"`
	IP         string         `json:"ip" gorm:"column:ip;not null;default:''"`
	Note       string         `json:"note" gorm:"not null;default:''"`
	Payload    datatypes.JSON `json:"payload"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}
