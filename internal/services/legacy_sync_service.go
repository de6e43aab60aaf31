package services

import (
	"context"

	"abserver/internal/models"
	apperrors "abserver/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const legacyBatchSize = 200

// LegacySyncService 旧版客户端的整簿导出与整簿替换
type LegacySyncService struct {
	db *gorm.DB
}

func NewLegacySyncService(db *gorm.DB) *LegacySyncService {
	return &LegacySyncService{db: db}
}

// Snapshot 在一个事务内读取整个地址簿，设备按 rustdesk_id、标签按名称排序
func (s *LegacySyncService) Snapshot(ctx context.Context, guid string) (*LegacyDocument, error) {
	doc := &LegacyDocument{
		Tags:      []string{},
		Peers:     []LegacyPeer{},
		TagColors: map[string]int64{},
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tags []models.Tag
		if err := tx.Where("ab_guid = ?", guid).Order("name").Find(&tags).Error; err != nil {
			return err
		}
		for _, tag := range tags {
			doc.Tags = append(doc.Tags, tag.Name)
			doc.TagColors[tag.Name] = tag.Color
		}

		var peers []models.Peer
		if err := tx.Where("ab_guid = ?", guid).Order("rustdesk_id").Find(&peers).Error; err != nil {
			return err
		}
		peerTags, err := tagNamesByPeer(tx, guid, nil)
		if err != nil {
			return err
		}
		for _, peer := range peers {
			doc.Peers = append(doc.Peers, LegacyPeer{
				ID:       peer.RustdeskID,
				Hash:     peer.Hash,
				Username: peer.Username,
				Hostname: peer.Hostname,
				Platform: peer.Platform,
				Alias:    peer.Alias,
				Tags:     nonNil(peerTags[peer.ID]),
			})
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Internal("failed to read address book", err)
	}
	return doc, nil
}

// Export 导出为客户端使用的字符串文档
func (s *LegacySyncService) Export(ctx context.Context, guid string) (string, error) {
	doc, err := s.Snapshot(ctx, guid)
	if err != nil {
		return "", err
	}
	data, err := EncodeLegacyDocument(doc)
	if err != nil {
		return "", apperrors.Internal("failed to encode address book", err)
	}
	return data, nil
}

// Import 解析文档并整体替换地址簿内容
func (s *LegacySyncService) Import(ctx context.Context, guid, data string) error {
	doc, err := DecodeLegacyDocument(data)
	if err != nil {
		return apperrors.BadRequest("Invalid address book data: %v", err)
	}
	return s.Replace(ctx, guid, doc)
}

// Replace 在一个事务内删除地址簿的关联、设备、标签，再按文档重建。
// 任一步失败整体回滚，地址簿保持调用前的状态
func (s *LegacySyncService) Replace(ctx context.Context, guid string, doc *LegacyDocument) error {
	peers, err := dedupePeers(doc.Peers)
	if err != nil {
		return err
	}
	tagNames := normalizeNames(doc.Tags)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearAddressBook(tx, guid); err != nil {
			return err
		}

		tagIDs, err := createTags(tx, guid, tagNames, doc)
		if err != nil {
			return err
		}
		peerIDs, err := createPeers(tx, guid, peers)
		if err != nil {
			return err
		}

		var links []models.PeerTag
		for _, peer := range peers {
			for _, name := range normalizeNames(peer.Tags) {
				if tagID, ok := tagIDs[name]; ok {
					links = append(links, models.PeerTag{PeerID: peerIDs[peer.ID], TagID: tagID})
				}
			}
		}
		if len(links) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&links, legacyBatchSize).Error
	})
	if err != nil {
		return apperrors.Internal("failed to replace address book", err)
	}
	return nil
}

func clearAddressBook(tx *gorm.DB, guid string) error {
	peerIDs := tx.Model(&models.Peer{}).Select("id").Where("ab_guid = ?", guid)
	if err := tx.Where("peer_id IN (?)", peerIDs).Delete(&models.PeerTag{}).Error; err != nil {
		return err
	}
	if err := tx.Where("ab_guid = ?", guid).Delete(&models.Peer{}).Error; err != nil {
		return err
	}
	return tx.Where("ab_guid = ?", guid).Delete(&models.Tag{}).Error
}

func createTags(tx *gorm.DB, guid string, names []string, doc *LegacyDocument) (map[string]uint, error) {
	ids := make(map[string]uint, len(names))
	if len(names) == 0 {
		return ids, nil
	}

	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		tags = append(tags, models.Tag{ABGuid: guid, Name: name, Color: doc.ColorOf(name, models.DefaultTagColor)})
	}
	if err := tx.CreateInBatches(&tags, legacyBatchSize).Error; err != nil {
		return nil, err
	}

	var stored []models.Tag
	if err := tx.Select("id", "name").Where("ab_guid = ?", guid).Find(&stored).Error; err != nil {
		return nil, err
	}
	for _, tag := range stored {
		ids[tag.Name] = tag.ID
	}
	return ids, nil
}

func createPeers(tx *gorm.DB, guid string, peers []LegacyPeer) (map[string]uint, error) {
	ids := make(map[string]uint, len(peers))
	if len(peers) == 0 {
		return ids, nil
	}

	rows := make([]models.Peer, 0, len(peers))
	for _, peer := range peers {
		rows = append(rows, models.Peer{
			ABGuid:     guid,
			RustdeskID: peer.ID,
			Hash:       peer.Hash,
			Username:   peer.Username,
			Hostname:   peer.Hostname,
			Platform:   peer.Platform,
			Alias:      peer.Alias,
		})
	}
	if err := tx.CreateInBatches(&rows, legacyBatchSize).Error; err != nil {
		return nil, err
	}

	var stored []models.Peer
	if err := tx.Select("id", "rustdesk_id").Where("ab_guid = ?", guid).Find(&stored).Error; err != nil {
		return nil, err
	}
	for _, peer := range stored {
		ids[peer.RustdeskID] = peer.ID
	}
	return ids, nil
}

// dedupePeers 同一 id 出现多次时保留第一次出现的位置、最后一次出现的内容
func dedupePeers(peers []LegacyPeer) ([]LegacyPeer, error) {
	index := make(map[string]int, len(peers))
	result := make([]LegacyPeer, 0, len(peers))
	for _, peer := range peers {
		if peer.ID == "" {
			return nil, apperrors.BadRequest("Invalid address book data: peer id is required")
		}
		if i, ok := index[peer.ID]; ok {
			result[i] = peer
			continue
		}
		index[peer.ID] = len(result)
		result = append(result, peer)
	}
	return result, nil
}
