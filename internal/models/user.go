package models

import (
	"golang.org/x/crypto/bcrypt"
)

// User 用户模型
type User struct {
	BaseModel
	Username     string `json:"username" gorm:"uniqueIndex;not null;size:100"`
	PasswordHash string `json:"-" gorm:"not null;size:255"`
	Name         string `json:"name" gorm:"not null;default:'';size:100"`
	Email        string `json:"email" gorm:"not null;default:'';size:255"`
	IsAdmin      bool   `json:"is_admin" gorm:"not null;default:false"`
	Status       int    `json:"status" gorm:"not null"`
}

func (User) TableName() string {
	return "users"
}

// 用户状态常量
const (
	UserStatusDisabled = 0
	UserStatusActive   = 1
)

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// DisplayName 客户端展示名，未设置名称时使用用户名
func (u *User) DisplayName() string {
	if u.Name == "" {
		return u.Username
	}
	return u.Name
}

// SetPassword 设置密码
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}
