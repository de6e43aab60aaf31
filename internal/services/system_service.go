package services

import (
	"context"
	"encoding/json"
	"time"

	"abserver/internal/models"
	apperrors "abserver/pkg/errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SystemService 处理客户端心跳、系统信息上报和审计日志
type SystemService struct {
	db *gorm.DB
}

// HeartbeatInput 客户端心跳
type HeartbeatInput struct {
	ID         string `json:"id"`
	UUID       string `json:"uuid"`
	ModifiedAt int64  `json:"modified_at"`
	Ver        int64  `json:"ver"`
}

// SysinfoInput 客户端系统信息
type SysinfoInput struct {
	ID       string `json:"id"`
	UUID     string `json:"uuid"`
	Hostname string `json:"hostname"`
	Platform string `json:"platform"`
	OS       string `json:"os"`
	CPU      string `json:"cpu"`
	Memory   string `json:"memory"`
	Version  string `json:"version"`
}

// AuditInput 客户端审计事件。部分客户端用 Id 字段传 RustDesk ID
type AuditInput struct {
	Action     string `json:"action"`
	ID         string `json:"id"`
	RustdeskID string `json:"Id"`
	PeerID     string `json:"peer_id"`
	IP         string `json:"ip"`
	Note       string `json:"note"`
}

func NewSystemService(db *gorm.DB) *SystemService {
	return &SystemService{db: db}
}

// Heartbeat 刷新设备在线时间，id 为空时忽略
func (s *SystemService) Heartbeat(ctx context.Context, input HeartbeatInput) error {
	if input.ID == "" {
		return nil
	}

	device := models.Device{RustdeskID: input.ID, UUID: input.UUID, LastOnline: time.Now()}
	updates := []string{"last_online"}
	if input.UUID != "" {
		updates = append(updates, "uuid")
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "rustdesk_id"}},
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(&device).Error
	if err != nil {
		return apperrors.Internal("failed to record heartbeat", err)
	}
	return nil
}

// Sysinfo 写入设备的系统信息，原始上报内容保存在 extra 字段
func (s *SystemService) Sysinfo(ctx context.Context, input SysinfoInput, raw []byte) error {
	if input.ID == "" {
		return nil
	}

	device := models.Device{
		RustdeskID: input.ID,
		UUID:       input.UUID,
		Hostname:   input.Hostname,
		Platform:   input.Platform,
		OS:         input.OS,
		CPU:        input.CPU,
		Memory:     input.Memory,
		Version:    input.Version,
		Extra:      rawJSON(raw),
		LastOnline: time.Now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "rustdesk_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"uuid", "hostname", "platform", "os", "cpu", "memory", "version", "extra", "last_online",
		}),
	}).Create(&device).Error
	if err != nil {
		return apperrors.Internal("failed to record sysinfo", err)
	}
	return nil
}

// Audit 追加一条客户端审计日志
func (s *SystemService) Audit(ctx context.Context, input AuditInput, raw []byte) error {
	rustdeskID := input.RustdeskID
	if rustdeskID == "" {
		rustdeskID = input.ID
	}

	entry := models.AuditLog{
		Action:     input.Action,
		RustdeskID: rustdeskID,
		PeerID:     input.PeerID,
		IP:         input.IP,
		Note:       input.Note,
		Payload:    rawJSON(raw),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return apperrors.Internal("failed to write audit log", err)
	}
	return nil
}

// RecordLogin 记录登录事件
func (s *SystemService) RecordLogin(ctx context.Context, userID uint, rustdeskID, ip string) error {
	entry := models.AuditLog{
		UserID:     &userID,
		Action:     "login",
		RustdeskID: rustdeskID,
		IP:         ip,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return apperrors.Internal("failed to write audit log", err)
	}
	return nil
}

// rawJSON 只保存合法的 JSON，其它内容丢弃
func rawJSON(raw []byte) datatypes.JSON {
	if len(raw) == 0 || !json.Valid(raw) {
		return nil
	}
	return datatypes.JSON(raw)
}
