package services

import (
	"context"
	"errors"
	"time"

	"abserver/internal/models"
	apperrors "abserver/pkg/errors"
	"abserver/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AddressBookService 管理员维护共享地址簿及其授权
type AddressBookService struct {
	db *gorm.DB
}

// AddressBookItem 管理接口中的地址簿信息
type AddressBookItem struct {
	GUID       string    `json:"guid"`
	Name       string    `json:"name"`
	OwnerID    uint      `json:"owner_id"`
	Owner      string    `json:"owner"`
	IsPersonal bool      `json:"is_personal"`
	PeerCount  int64     `json:"peer_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateAddressBookInput 创建共享地址簿参数
type CreateAddressBookInput struct {
	Name    string `json:"name" binding:"required,max=255"`
	OwnerID uint   `json:"owner_id" binding:"required"`
}

// GrantShareInput 授权参数，UserID 与 GroupID 必须且只能给出一个
type GrantShareInput struct {
	UserID  *uint `json:"user_id"`
	GroupID *uint `json:"group_id"`
	Rule    int   `json:"rule" binding:"required,min=1,max=3"`
}

// ShareItem 地址簿的一条授权
type ShareItem struct {
	ID        uint   `json:"id"`
	ABGuid    string `json:"ab_guid"`
	UserID    *uint  `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
	GroupID   *uint  `json:"group_id,omitempty"`
	GroupName string `json:"group_name,omitempty"`
	Rule      int    `json:"rule"`
}

func NewAddressBookService(db *gorm.DB) *AddressBookService {
	return &AddressBookService{db: db}
}

// List 返回全部地址簿，按名称、guid 排序
func (s *AddressBookService) List(ctx context.Context) ([]AddressBookItem, error) {
	db := s.db.WithContext(ctx)

	var books []models.AddressBook
	if err := db.Order("name, guid").Find(&books).Error; err != nil {
		return nil, apperrors.Internal("failed to list address books", err)
	}

	var counts []struct {
		ABGuid string
		Total  int64
	}
	if err := db.Model(&models.Peer{}).
		Select("ab_guid, COUNT(*) AS total").
		Group("ab_guid").
		Scan(&counts).Error; err != nil {
		return nil, apperrors.Internal("failed to count peers", err)
	}
	peerCounts := make(map[string]int64, len(counts))
	for _, row := range counts {
		peerCounts[row.ABGuid] = row.Total
	}

	ownerIDs := make([]uint, 0, len(books))
	for _, book := range books {
		ownerIDs = append(ownerIDs, book.OwnerID)
	}
	owners, err := usernamesByID(db, ownerIDs)
	if err != nil {
		return nil, apperrors.Internal("failed to load address book owners", err)
	}

	items := make([]AddressBookItem, 0, len(books))
	for _, book := range books {
		items = append(items, AddressBookItem{
			GUID:       book.GUID,
			Name:       book.Name,
			OwnerID:    book.OwnerID,
			Owner:      owners[book.OwnerID],
			IsPersonal: book.IsPersonal,
			PeerCount:  peerCounts[book.GUID],
			CreatedAt:  book.CreatedAt,
		})
	}
	return items, nil
}

// Create 为指定用户创建一个非个人地址簿
func (s *AddressBookService) Create(ctx context.Context, input CreateAddressBookInput) (*models.AddressBook, error) {
	if input.Name == "" {
		return nil, apperrors.BadRequest("Address book name is required")
	}
	if err := s.requireUser(ctx, input.OwnerID); err != nil {
		return nil, err
	}

	book := &models.AddressBook{
		GUID:    uuid.NewString(),
		Name:    input.Name,
		OwnerID: input.OwnerID,
	}
	if err := s.db.WithContext(ctx).Create(book).Error; err != nil {
		return nil, apperrors.Internal("failed to create address book", err)
	}

	logger.WithContext(ctx).WithField("owner_id", input.OwnerID).Infof("Created address book %s (%s)", book.GUID, book.Name)
	return book, nil
}

// Delete 删除非个人地址簿及其设备、标签、关联和授权
func (s *AddressBookService) Delete(ctx context.Context, guid string) error {
	book, err := s.get(ctx, guid)
	if err != nil {
		return err
	}
	if book.IsPersonal {
		return apperrors.BadRequest("Personal address books are deleted together with their owner")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteAddressBooks(tx, []string{guid})
	})
	if err != nil {
		return apperrors.Internal("failed to delete address book", err)
	}
	return nil
}

// ========== 授权管理 ==========

// Shares 返回地址簿的全部授权
func (s *AddressBookService) Shares(ctx context.Context, guid string) ([]ShareItem, error) {
	if _, err := s.get(ctx, guid); err != nil {
		return nil, err
	}

	items := []ShareItem{}
	err := s.db.WithContext(ctx).
		Table("ab_shares").
		Select("ab_shares.id, ab_shares.ab_guid, ab_shares.user_id, users.username, ab_shares.group_id, groups.name AS group_name, ab_shares.rule").
		Joins("LEFT JOIN users ON users.id = ab_shares.user_id").
		Joins("LEFT JOIN groups ON groups.id = ab_shares.group_id").
		Where("ab_shares.ab_guid = ?", guid).
		Order("ab_shares.id").
		Scan(&items).Error
	if err != nil {
		return nil, apperrors.Internal("failed to list shares", err)
	}
	return items, nil
}

// Grant 授权给用户或用户组。同一目标已有授权时更新权限
func (s *AddressBookService) Grant(ctx context.Context, guid string, input GrantShareInput) (*models.Share, error) {
	if (input.UserID == nil) == (input.GroupID == nil) {
		return nil, apperrors.BadRequest("Exactly one of user_id and group_id is required")
	}
	if input.Rule < models.RuleRead || input.Rule > models.RuleFull {
		return nil, apperrors.BadRequest("Invalid rule %d", input.Rule)
	}

	book, err := s.get(ctx, guid)
	if err != nil {
		return nil, err
	}
	if book.IsPersonal {
		return nil, apperrors.BadRequest("Personal address books cannot be shared")
	}

	if input.UserID != nil {
		if err := s.requireUser(ctx, *input.UserID); err != nil {
			return nil, err
		}
	} else {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Group{}).Where("id = ?", *input.GroupID).Count(&count).Error; err != nil {
			return nil, apperrors.Internal("failed to look up group", err)
		}
		if count == 0 {
			return nil, apperrors.NotFound("Group not found")
		}
	}

	var share models.Share
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("ab_guid = ?", guid)
		if input.UserID != nil {
			query = query.Where("user_id = ?", *input.UserID)
		} else {
			query = query.Where("group_id = ?", *input.GroupID)
		}

		err := query.Take(&share).Error
		if err == nil {
			share.Rule = input.Rule
			return tx.Model(&share).Update("rule", input.Rule).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		share = models.Share{ABGuid: guid, UserID: input.UserID, GroupID: input.GroupID, Rule: input.Rule}
		return tx.Create(&share).Error
	})
	if err != nil {
		return nil, apperrors.Internal("failed to grant share", err)
	}
	return &share, nil
}

// Revoke 删除一条授权
func (s *AddressBookService) Revoke(ctx context.Context, shareID uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Share{}, shareID)
	if result.Error != nil {
		return apperrors.Internal("failed to revoke share", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("Share not found")
	}
	return nil
}

func (s *AddressBookService) get(ctx context.Context, guid string) (*models.AddressBook, error) {
	var book models.AddressBook
	if err := s.db.WithContext(ctx).Where("guid = ?", guid).Take(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Address book not found")
		}
		return nil, apperrors.Internal("failed to get address book", err)
	}
	return &book, nil
}

func (s *AddressBookService) requireUser(ctx context.Context, userID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return apperrors.Internal("failed to look up user", err)
	}
	if count == 0 {
		return apperrors.NotFound("User not found")
	}
	return nil
}

// deleteAddressBooks 在事务内删除地址簿及其全部内容，先删关联再删行
func deleteAddressBooks(tx *gorm.DB, guids []string) error {
	if len(guids) == 0 {
		return nil
	}

	peerIDs := tx.Model(&models.Peer{}).Select("id").Where("ab_guid IN ?", guids)
	if err := tx.Where("peer_id IN (?)", peerIDs).Delete(&models.PeerTag{}).Error; err != nil {
		return err
	}
	if err := tx.Where("ab_guid IN ?", guids).Delete(&models.Peer{}).Error; err != nil {
		return err
	}
	if err := tx.Where("ab_guid IN ?", guids).Delete(&models.Tag{}).Error; err != nil {
		return err
	}
	if err := tx.Where("ab_guid IN ?", guids).Delete(&models.Share{}).Error; err != nil {
		return err
	}
	return tx.Where("guid IN ?", guids).Delete(&models.AddressBook{}).Error
}
