package main

import (
	"abserver/internal/models"
	"abserver/pkg/config"
	"abserver/pkg/logger"
	"fmt"

	"gorm.io/gorm"
)

// seedData 用户表为空时创建默认管理员
func seedData(db *gorm.DB, admin config.AdminConfig) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("统计用户失败: %v", err)
	}
	if count > 0 {
		return nil
	}

	user := &models.User{
		Username: admin.Username,
		Name:     "Administrator",
		IsAdmin:  true,
		Status:   models.UserStatusActive,
	}
	if err := user.SetPassword(admin.Password); err != nil {
		return fmt.Errorf("密码加密失败: %v", err)
	}
	if err := db.Create(user).Error; err != nil {
		return fmt.Errorf("创建默认管理员失败: %v", err)
	}

	logger.GetLogger().Warnf("Created default admin user '%s', change the password after first login", admin.Username)
	return nil
}
