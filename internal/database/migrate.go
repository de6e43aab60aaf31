package database

import (
	"abserver/internal/models"
	"abserver/pkg/logger"

	"gorm.io/gorm"
)

// Migrate 执行数据库迁移
func Migrate() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting database migration...")

	if err := AutoMigrate(DB); err != nil {
		appLogger.Errorf("Database migration failed: %v", err)
		return err
	}

	appLogger.Info("Database migration completed successfully")
	return nil
}

// AutoMigrate 建表并创建 gorm 标签无法表达的部分唯一索引
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.UserGroup{},
		&models.AddressBook{},
		&models.Share{},
		&models.Peer{},
		&models.Tag{},
		&models.PeerTag{},
		&models.Device{},
		&models.AuditLog{},
	)
	if err != nil {
		return err
	}

	// 每个用户只能有一个个人地址簿
	return db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_address_books_personal_owner ON address_books (owner_id) WHERE is_personal",
	).Error
}
