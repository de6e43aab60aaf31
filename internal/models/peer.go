package models

import "time"

// Peer 地址簿中的远程设备，(ab_guid, rustdesk_id) 唯一
type Peer struct {
	ID         uint   `gorm:"primarykey"`
	ABGuid     string `gorm:"column:ab_guid;not null;size:36;uniqueIndex:idx_peers_ab_rustdesk"`
	RustdeskID string `gorm:"column:rustdesk_id;not null;size:100;uniqueIndex:idx_peers_ab_rustdesk"`
	Hash       string `gorm:"not null;default:''"`
	Username   string `gorm:"not null;default:''"`
	Hostname   string `gorm:"not null;default:''"`
	Platform   string `gorm:"not null;default:''"`
	Alias      string `gorm:"not null;default:''"`
	Note       string `gorm:"not null;default:''"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Peer) TableName() string {
	return "peers"
}

// PeerTag 设备与标签的多对多关系，两端必须属于同一地址簿
type PeerTag struct {
	PeerID uint `gorm:"primaryKey;autoIncrement:false"`
	TagID  uint `gorm:"primaryKey;autoIncrement:false;index"`
}

func (PeerTag) TableName() string {
	return "peer_tags"
}
