package services

import (
	"context"
	"errors"
	"time"

	"abserver/internal/database"
	"abserver/internal/models"
	apperrors "abserver/pkg/errors"
	"abserver/pkg/logger"

	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

// UserItem 管理接口中的用户信息
type UserItem struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	Status    int       `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateUserInput 创建用户参数
type CreateUserInput struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"max=100"`
	Email    string `json:"email" binding:"omitempty,email,max=255"`
	IsAdmin  bool   `json:"is_admin"`
}

// UserPatch 部分更新，nil 字段保持不变；空密码忽略
type UserPatch struct {
	Name     *string `json:"name" binding:"omitempty,max=100"`
	Email    *string `json:"email" binding:"omitempty,max=255"`
	IsAdmin  *bool   `json:"is_admin"`
	Status   *int    `json:"status" binding:"omitempty,oneof=0 1"`
	Password *string `json:"password"`
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// ========== 认证 ==========

// Authenticate 校验用户名密码，用户不存在、已禁用或密码错误返回同一个错误
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? AND status = ?", username, models.UserStatusActive).
		Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthorized("Invalid username or password")
		}
		return nil, apperrors.Internal("failed to look up user", err)
	}

	if !user.CheckPassword(password) {
		return nil, apperrors.Unauthorized("Invalid username or password")
	}
	return &user, nil
}

// ========== 基础CRUD方法 ==========

// GetByID 根据ID获取用户
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Take(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.Internal("failed to get user", err)
	}
	return &user, nil
}

// List 按ID排序返回全部用户
func (s *UserService) List(ctx context.Context) ([]UserItem, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, apperrors.Internal("failed to list users", err)
	}

	items := make([]UserItem, 0, len(users))
	for _, u := range users {
		items = append(items, UserItem{
			ID:        u.ID,
			Username:  u.Username,
			Name:      u.Name,
			Email:     u.Email,
			IsAdmin:   u.IsAdmin,
			Status:    u.Status,
			CreatedAt: u.CreatedAt,
		})
	}
	return items, nil
}

// Create 创建用户，用户名重复返回 Conflict
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if input.Username == "" || input.Password == "" {
		return nil, apperrors.BadRequest("Username and password are required")
	}

	user := &models.User{
		Username: input.Username,
		Name:     input.Name,
		Email:    input.Email,
		IsAdmin:  input.IsAdmin,
		Status:   models.UserStatusActive,
	}
	if err := user.SetPassword(input.Password); err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperrors.Conflict("Username '%s' already exists", input.Username)
		}
		return nil, apperrors.Internal("failed to create user", err)
	}

	logger.WithContext(ctx).WithField("user_id", user.ID).Infof("Created user %s", user.Username)
	return user, nil
}

// Update 按 patch 更新用户，每个出现的字段单独生效
func (s *UserService) Update(ctx context.Context, id uint, patch UserPatch) error {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Email != nil {
		updates["email"] = *patch.Email
	}
	if patch.IsAdmin != nil {
		updates["is_admin"] = *patch.IsAdmin
	}
	if patch.Status != nil {
		if *patch.Status != models.UserStatusActive && *patch.Status != models.UserStatusDisabled {
			return apperrors.BadRequest("Invalid status %d", *patch.Status)
		}
		updates["status"] = *patch.Status
	}
	if patch.Password != nil && *patch.Password != "" {
		var tmp models.User
		if err := tmp.SetPassword(*patch.Password); err != nil {
			return apperrors.Internal("failed to hash password", err)
		}
		updates["password_hash"] = tmp.PasswordHash
	}

	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return apperrors.Internal("failed to update user", err)
	}
	return nil
}

// Delete 删除用户及其组成员关系、直接共享和名下的地址簿。不能删除自己
func (s *UserService) Delete(ctx context.Context, actorID, id uint) error {
	if actorID == id {
		return apperrors.BadRequest("Cannot delete yourself")
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.UserGroup{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Share{}).Error; err != nil {
			return err
		}

		var guids []string
		if err := tx.Model(&models.AddressBook{}).Where("owner_id = ?", id).Pluck("guid", &guids).Error; err != nil {
			return err
		}
		if err := deleteAddressBooks(tx, guids); err != nil {
			return err
		}

		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return apperrors.Internal("failed to delete user", err)
	}

	logger.WithContext(ctx).WithField("user_id", id).Info("Deleted user")
	return nil
}
