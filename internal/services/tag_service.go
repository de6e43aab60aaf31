package services

import (
	"context"

	"abserver/internal/database"
	"abserver/internal/models"
	apperrors "abserver/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagService 地址簿内的标签管理，标签以 (ab_guid, name) 定位
type TagService struct {
	db *gorm.DB
}

func NewTagService(db *gorm.DB) *TagService {
	return &TagService{db: db}
}

// List 按名称排序返回地址簿的全部标签
func (s *TagService) List(ctx context.Context, guid string) ([]TagPayload, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Where("ab_guid = ?", guid).Order("name").Find(&tags).Error; err != nil {
		return nil, apperrors.Internal("failed to list tags", err)
	}

	payloads := make([]TagPayload, 0, len(tags))
	for _, tag := range tags {
		payloads = append(payloads, TagPayload{Name: tag.Name, Color: tag.Color})
	}
	return payloads, nil
}

// Add 创建标签，同名标签已存在时静默忽略
func (s *TagService) Add(ctx context.Context, guid, name string, color int64) error {
	if name == "" {
		return apperrors.BadRequest("Tag name is required")
	}

	tag := models.Tag{ABGuid: guid, Name: name, Color: color}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&tag).Error
	if err != nil {
		return apperrors.Internal("failed to add tag", err)
	}
	return nil
}

// Rename 重命名标签，保留原记录与设备关联；新名称已被占用时返回 Conflict
func (s *TagService) Rename(ctx context.Context, guid, oldName, newName string) error {
	if oldName == "" || newName == "" {
		return apperrors.BadRequest("Both old and new tag names are required")
	}
	if oldName == newName {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Tag{}).
			Where("ab_guid = ? AND name = ?", guid, newName).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.Conflict("Tag '%s' already exists", newName)
		}

		err := tx.Model(&models.Tag{}).
			Where("ab_guid = ? AND name = ?", guid, oldName).
			Update("name", newName).Error
		if database.IsUniqueViolation(err) {
			return apperrors.Conflict("Tag '%s' already exists", newName)
		}
		return err
	})
	return apperrors.Wrap(err, "failed to rename tag")
}

// Recolor 修改标签颜色
func (s *TagService) Recolor(ctx context.Context, guid, name string, color int64) error {
	err := s.db.WithContext(ctx).
		Model(&models.Tag{}).
		Where("ab_guid = ? AND name = ?", guid, name).
		Update("color", color).Error
	if err != nil {
		return apperrors.Internal("failed to update tag color", err)
	}
	return nil
}

// Delete 批量删除标签，先删设备关联再删标签；不存在的名称直接忽略
func (s *TagService) Delete(ctx context.Context, guid string, names []string) error {
	names = normalizeNames(names)
	if len(names) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tagIDs := tx.Model(&models.Tag{}).
			Select("id").
			Where("ab_guid = ? AND name IN ?", guid, names)
		if err := tx.Where("tag_id IN (?)", tagIDs).Delete(&models.PeerTag{}).Error; err != nil {
			return err
		}
		return tx.Where("ab_guid = ? AND name IN ?", guid, names).Delete(&models.Tag{}).Error
	})
	if err != nil {
		return apperrors.Internal("failed to delete tags", err)
	}
	return nil
}
