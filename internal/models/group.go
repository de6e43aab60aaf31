package models

import "time"

// Group 用户组，通过 Share 获得地址簿访问权
type Group struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null;size:100"`
	Note      string    `json:"note" gorm:"not null;default:''"`
	CreatedAt time.Time `json:"created_at"`
}

func (Group) TableName() string {
	return "groups"
}

// UserGroup 组成员关系
type UserGroup struct {
	UserID    uint      `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	GroupID   uint      `json:"group_id" gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserGroup) TableName() string {
	return "user_groups"
}
