package services

import (
	"context"
	"errors"

	"abserver/internal/database"
	"abserver/internal/models"
	apperrors "abserver/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupService struct {
	db *gorm.DB
}

// CreateGroupInput 创建用户组参数
type CreateGroupInput struct {
	Name string `json:"name" binding:"required,max=100"`
	Note string `json:"note"`
}

// GroupPatch 部分更新，nil 字段保持不变
type GroupPatch struct {
	Name *string `json:"name" binding:"omitempty,min=1,max=100"`
	Note *string `json:"note"`
}

// GroupMember 组成员
type GroupMember struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{db: db}
}

// List 按ID排序返回全部用户组
func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := s.db.WithContext(ctx).Order("id").Find(&groups).Error; err != nil {
		return nil, apperrors.Internal("failed to list groups", err)
	}
	return groups, nil
}

// GetByID 根据ID获取用户组
func (s *GroupService) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := s.db.WithContext(ctx).Take(&group, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Group not found")
		}
		return nil, apperrors.Internal("failed to get group", err)
	}
	return &group, nil
}

// Create 创建用户组，名称重复返回 Conflict
func (s *GroupService) Create(ctx context.Context, input CreateGroupInput) (*models.Group, error) {
	if input.Name == "" {
		return nil, apperrors.BadRequest("Group name is required")
	}

	group := &models.Group{Name: input.Name, Note: input.Note}
	if err := s.db.WithContext(ctx).Create(group).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperrors.Conflict("Group '%s' already exists", input.Name)
		}
		return nil, apperrors.Internal("failed to create group", err)
	}
	return group, nil
}

// Update 按 patch 更新用户组
func (s *GroupService) Update(ctx context.Context, id uint, patch GroupPatch) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		if *patch.Name == "" {
			return apperrors.BadRequest("Group name cannot be empty")
		}
		updates["name"] = *patch.Name
	}
	if patch.Note != nil {
		updates["note"] = *patch.Note
	}
	if len(updates) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(&models.Group{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.Conflict("Group '%s' already exists", *patch.Name)
		}
		return apperrors.Internal("failed to update group", err)
	}
	return nil
}

// Delete 删除用户组及其成员关系和共享
func (s *GroupService) Delete(ctx context.Context, id uint) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&models.UserGroup{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).Delete(&models.Share{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Group{}, id).Error
	})
	if err != nil {
		return apperrors.Internal("failed to delete group", err)
	}
	return nil
}

// ========== 成员管理 ==========

// Members 按用户名排序返回组成员
func (s *GroupService) Members(ctx context.Context, groupID uint) ([]GroupMember, error) {
	if _, err := s.GetByID(ctx, groupID); err != nil {
		return nil, err
	}

	members := []GroupMember{}
	err := s.db.WithContext(ctx).
		Table("user_groups").
		Select("users.id AS user_id, users.username, users.name").
		Joins("JOIN users ON users.id = user_groups.user_id").
		Where("user_groups.group_id = ?", groupID).
		Order("users.username").
		Scan(&members).Error
	if err != nil {
		return nil, apperrors.Internal("failed to list group members", err)
	}
	return members, nil
}

// AddMember 把用户加入组，已是成员时不做任何事
func (s *GroupService) AddMember(ctx context.Context, groupID, userID uint) error {
	if _, err := s.GetByID(ctx, groupID); err != nil {
		return err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return apperrors.Internal("failed to look up user", err)
	}
	if count == 0 {
		return apperrors.NotFound("User not found")
	}

	member := models.UserGroup{UserID: userID, GroupID: groupID}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error; err != nil {
		return apperrors.Internal("failed to add group member", err)
	}
	return nil
}

// RemoveMember 把用户移出组，不是成员时不做任何事
func (s *GroupService) RemoveMember(ctx context.Context, groupID, userID uint) error {
	err := s.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.UserGroup{}).Error
	if err != nil {
		return apperrors.Internal("failed to remove group member", err)
	}
	return nil
}
