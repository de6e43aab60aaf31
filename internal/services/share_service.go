package services

import (
	"context"

	"abserver/internal/models"
	apperrors "abserver/pkg/errors"

	"github.com/duke-git/lancet/v2/slice"
	"gorm.io/gorm"
)

// ShareService 计算用户通过共享可见的地址簿
type ShareService struct {
	db *gorm.DB
}

func NewShareService(db *gorm.DB) *ShareService {
	return &ShareService{db: db}
}

type sharedRow struct {
	GUID    string
	Name    string
	OwnerID uint
	Rule    int
}

// ListShared 返回直接共享或通过组共享给用户的非个人地址簿。
// 同一地址簿只出现一次，取最高权限；按名称、guid 排序
func (s *ShareService) ListShared(ctx context.Context, userID uint) ([]AbProfile, error) {
	db := s.db.WithContext(ctx)

	var rows []sharedRow
	err := db.Table("ab_shares AS s").
		Select("ab.guid AS guid, ab.name AS name, ab.owner_id AS owner_id, MAX(s.rule) AS rule").
		Joins("JOIN address_books ab ON ab.guid = s.ab_guid").
		Where("ab.is_personal = ?", false).
		Where("(s.user_id = ? OR s.group_id IN (SELECT group_id FROM user_groups WHERE user_id = ?))", userID, userID).
		Group("ab.guid, ab.name, ab.owner_id").
		Order("ab.name, ab.guid").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Internal("failed to list shared address books", err)
	}

	ownerIDs := slice.Unique(slice.Map(rows, func(_ int, row sharedRow) uint { return row.OwnerID }))
	owners, err := usernamesByID(db, ownerIDs)
	if err != nil {
		return nil, apperrors.Internal("failed to load address book owners", err)
	}

	profiles := make([]AbProfile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, AbProfile{
			GUID:  row.GUID,
			Name:  row.Name,
			Owner: owners[row.OwnerID],
			Rule:  row.Rule,
		})
	}
	return profiles, nil
}

// PersonalProfile 个人地址簿概要，所有者拥有完全控制权
func (s *ShareService) PersonalProfile(guid, username string) AbProfile {
	return AbProfile{
		GUID:  guid,
		Name:  models.PersonalBookName,
		Owner: username,
		Rule:  models.RuleFull,
	}
}

// usernamesByID 批量查询用户名，已删除的用户不出现在结果中
func usernamesByID(db *gorm.DB, ids []uint) (map[uint]string, error) {
	result := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var users []models.User
	if err := db.Select("id", "username").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, user := range users {
		result[user.ID] = user.Username
	}
	return result, nil
}
