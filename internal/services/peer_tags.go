package services

import (
	"abserver/internal/models"

	"github.com/duke-git/lancet/v2/slice"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// replacePeerTags 清空设备的标签关联，再按名称关联同一地址簿中已存在的标签。
// 不存在的标签名直接忽略，不会自动创建
func replacePeerTags(tx *gorm.DB, guid string, peerID uint, names []string) error {
	if err := tx.Where("peer_id = ?", peerID).Delete(&models.PeerTag{}).Error; err != nil {
		return err
	}

	names = normalizeNames(names)
	if len(names) == 0 {
		return nil
	}

	var tagIDs []uint
	if err := tx.Model(&models.Tag{}).
		Where("ab_guid = ? AND name IN ?", guid, names).
		Pluck("id", &tagIDs).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}

	links := make([]models.PeerTag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		links = append(links, models.PeerTag{PeerID: peerID, TagID: tagID})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}

// tagNamesByPeer 返回地址簿内设备的标签名（按名称排序）。peerIDs 为 nil 时返回整个地址簿
func tagNamesByPeer(tx *gorm.DB, guid string, peerIDs []uint) (map[uint][]string, error) {
	result := make(map[uint][]string)
	if peerIDs != nil && len(peerIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		PeerID uint
		Name   string
	}
	query := tx.Table("peer_tags").
		Select("peer_tags.peer_id, tags.name").
		Joins("JOIN tags ON tags.id = peer_tags.tag_id").
		Where("tags.ab_guid = ?", guid)
	if peerIDs != nil {
		query = query.Where("peer_tags.peer_id IN ?", peerIDs)
	}
	if err := query.Order("tags.name").Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.PeerID] = append(result[row.PeerID], row.Name)
	}
	return result, nil
}

// normalizeNames 去掉空字符串和重复项，保留原有顺序
func normalizeNames(names []string) []string {
	return slice.Unique(slice.Filter(names, func(_ int, name string) bool {
		return name != ""
	}))
}

// MergeNames 合并批量参数与旧版客户端的单个参数
func MergeNames(names []string, single *string) []string {
	if single != nil {
		names = append(names, *single)
	}
	return normalizeNames(names)
}

func toPeerPayload(peer *models.Peer, tags []string) PeerPayload {
	if tags == nil {
		tags = []string{}
	}
	return PeerPayload{
		ID:       peer.RustdeskID,
		Hash:     peer.Hash,
		Username: peer.Username,
		Hostname: peer.Hostname,
		Platform: peer.Platform,
		Alias:    peer.Alias,
		Tags:     tags,
		Note:     peer.Note,
	}
}
