package models

import "time"

// PersonalBookName 个人地址簿的固定名称
const PersonalBookName = "Personal"

// AddressBook 地址簿。每个用户最多一个 IsPersonal 的地址簿，
// 由 address_books(owner_id) WHERE is_personal 上的唯一索引保证
type AddressBook struct {
	GUID       string    `json:"guid" gorm:"column:guid;primaryKey;size:36"`
	Name       string    `json:"name" gorm:"not null;size:255"`
	OwnerID    uint      `json:"owner_id" gorm:"not null;index"`
	IsPersonal bool      `json:"is_personal" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"created_at"`
}

func (AddressBook) TableName() string {
	return "address_books"
}

// 共享权限
const (
	RuleRead      = 1
	RuleReadWrite = 2
	RuleFull      = 3
)

// Share 将地址簿授权给单个用户或用户组（二者互斥）
type Share struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	ABGuid    string    `json:"ab_guid" gorm:"column:ab_guid;not null;size:36;index"`
	UserID    *uint     `json:"user_id,omitempty" gorm:"index"`
	GroupID   *uint     `json:"group_id,omitempty" gorm:"index"`
	Rule      int       `json:"rule" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"created_at"`
}

func (Share) TableName() string {
	return "ab_shares"
}
