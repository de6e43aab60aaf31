package services

import (
	"context"
	"errors"

	"abserver/internal/models"
	apperrors "abserver/pkg/errors"
	"abserver/pkg/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PeerService 地址簿内设备的增删改查，guid 必须先经 AccessService 解析
type PeerService struct {
	db *gorm.DB
}

func NewPeerService(db *gorm.DB) *PeerService {
	return &PeerService{db: db}
}

// List 按 rustdesk_id 排序分页，total 与分页窗口无关
func (s *PeerService) List(ctx context.Context, guid string, page *pagination.PageParams) ([]PeerPayload, int64, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Peer{}).Where("ab_guid = ?", guid).Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count peers", err)
	}

	var peers []models.Peer
	if err := db.Where("ab_guid = ?", guid).
		Order("rustdesk_id").
		Offset(page.GetOffset()).
		Limit(page.GetLimit()).
		Find(&peers).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to list peers", err)
	}

	ids := make([]uint, 0, len(peers))
	for _, peer := range peers {
		ids = append(ids, peer.ID)
	}
	tags, err := tagNamesByPeer(db, guid, ids)
	if err != nil {
		return nil, 0, apperrors.Internal("failed to load peer tags", err)
	}

	payloads := make([]PeerPayload, 0, len(peers))
	for i := range peers {
		payloads = append(payloads, toPeerPayload(&peers[i], tags[peers[i].ID]))
	}
	return payloads, total, nil
}

// Upsert 按 (ab_guid, rustdesk_id) 插入或覆盖设备；tags 非空时整体替换标签关联
func (s *PeerService) Upsert(ctx context.Context, guid string, req PeerPayload) error {
	if req.ID == "" {
		return apperrors.BadRequest("Peer id is required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		peer := models.Peer{
			ABGuid:     guid,
			RustdeskID: req.ID,
			Hash:       req.Hash,
			Username:   req.Username,
			Hostname:   req.Hostname,
			Platform:   req.Platform,
			Alias:      req.Alias,
			Note:       req.Note,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ab_guid"}, {Name: "rustdesk_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"hash", "username", "hostname", "platform", "alias", "note", "updated_at"}),
		}).Create(&peer).Error; err != nil {
			return err
		}

		if len(req.Tags) == 0 {
			return nil
		}

		var stored models.Peer
		if err := tx.Select("id").
			Where("ab_guid = ? AND rustdesk_id = ?", guid, req.ID).
			Take(&stored).Error; err != nil {
			return err
		}
		return replacePeerTags(tx, guid, stored.ID, req.Tags)
	})
	if err != nil {
		return apperrors.Internal("failed to save peer", err)
	}
	return nil
}

// Update 只更新 patch 中出现的字段
func (s *PeerService) Update(ctx context.Context, guid, rustdeskID string, patch PeerPatch) error {
	if rustdeskID == "" {
		return apperrors.BadRequest("Peer id is required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var peer models.Peer
		if err := tx.Where("ab_guid = ? AND rustdesk_id = ?", guid, rustdeskID).Take(&peer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Peer not found")
			}
			return err
		}

		updates := map[string]interface{}{}
		setIfPresent(updates, "hash", patch.Hash)
		setIfPresent(updates, "username", patch.Username)
		setIfPresent(updates, "hostname", patch.Hostname)
		setIfPresent(updates, "platform", patch.Platform)
		setIfPresent(updates, "alias", patch.Alias)
		setIfPresent(updates, "note", patch.Note)
		if len(updates) > 0 {
			if err := tx.Model(&peer).Updates(updates).Error; err != nil {
				return err
			}
		}

		if patch.Tags != nil {
			return replacePeerTags(tx, guid, peer.ID, *patch.Tags)
		}
		return nil
	})
	return apperrors.Wrap(err, "failed to update peer")
}

// Delete 批量删除设备，先删标签关联再删设备；不存在的 id 直接忽略
func (s *PeerService) Delete(ctx context.Context, guid string, rustdeskIDs []string) error {
	rustdeskIDs = normalizeNames(rustdeskIDs)
	if len(rustdeskIDs) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		peerIDs := tx.Model(&models.Peer{}).
			Select("id").
			Where("ab_guid = ? AND rustdesk_id IN ?", guid, rustdeskIDs)
		if err := tx.Where("peer_id IN (?)", peerIDs).Delete(&models.PeerTag{}).Error; err != nil {
			return err
		}
		return tx.Where("ab_guid = ? AND rustdesk_id IN ?", guid, rustdeskIDs).Delete(&models.Peer{}).Error
	})
	if err != nil {
		return apperrors.Internal("failed to delete peers", err)
	}
	return nil
}

func setIfPresent(updates map[string]interface{}, column string, value *string) {
	if value != nil {
		updates[column] = *value
	}
}
