package services

import (
	"context"
	"errors"

	"abserver/internal/database"
	"abserver/internal/models"
	apperrors "abserver/pkg/errors"
	"abserver/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessService 解析请求要操作的地址簿并校验访问权限
type AccessService struct {
	db *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{db: db}
}

// EnsurePersonal 返回用户的个人地址簿，不存在时创建。
// 并发创建时由唯一索引裁决，失败方重新查询胜出方的记录
func (s *AccessService) EnsurePersonal(ctx context.Context, userID uint) (string, error) {
	guid, err := s.findPersonal(ctx, userID)
	if err == nil {
		return guid, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperrors.Internal("failed to look up personal address book", err)
	}

	book := models.AddressBook{
		GUID:       uuid.NewString(),
		Name:       models.PersonalBookName,
		OwnerID:    userID,
		IsPersonal: true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&book).Error
	})
	if err == nil {
		logger.WithContext(ctx).WithField("user_id", userID).Infof("Created personal address book %s", book.GUID)
		return book.GUID, nil
	}
	if !database.IsUniqueViolation(err) {
		return "", apperrors.Internal("failed to create personal address book", err)
	}

	guid, err = s.findPersonal(ctx, userID)
	if err != nil {
		return "", apperrors.Internal("failed to re-read personal address book", err)
	}
	return guid, nil
}

func (s *AccessService) findPersonal(ctx context.Context, userID uint) (string, error) {
	var book models.AddressBook
	err := s.db.WithContext(ctx).
		Select("guid").
		Where("owner_id = ? AND is_personal = ?", userID, true).
		Take(&book).Error
	return book.GUID, err
}

// Resolve 空 guid 表示个人地址簿；否则要求调用者是所有者，或被直接共享，或所在组被共享。
// 地址簿不存在与无权访问返回相同的 Forbidden，避免探测
func (s *AccessService) Resolve(ctx context.Context, userID uint, guid string) (string, error) {
	if guid == "" {
		return s.EnsurePersonal(ctx, userID)
	}

	ok, err := s.CanAccess(ctx, userID, guid)
	if err != nil {
		return "", apperrors.Internal("failed to check address book access", err)
	}
	if !ok {
		return "", apperrors.Forbidden("Access denied to this address book")
	}
	return guid, nil
}

// CanAccess 检查用户是否可以访问指定地址簿
func (s *AccessService) CanAccess(ctx context.Context, userID uint, guid string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.AddressBook{}).
		Where("guid = ?", guid).
		Where(`(owner_id = ? OR EXISTS (
			SELECT 1 FROM ab_shares s
			WHERE s.ab_guid = address_books.guid
			AND (s.user_id = ? OR s.group_id IN (SELECT group_id FROM user_groups WHERE user_id = ?))
		))`, userID, userID, userID).
		Count(&count).Error
	return count > 0, err
}
