// Package dbtest opens throwaway migrated databases for package tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"abserver/internal/database"
	"abserver/internal/models"
	"abserver/pkg/config"

	"gorm.io/gorm"
)

// New returns a migrated SQLite database living in t.TempDir.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.sqlite3"),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts an active user with the given username.
func CreateUser(t testing.TB, db *gorm.DB, username string, isAdmin bool) *models.User {
	t.Helper()

	user := &models.User{Username: username, IsAdmin: isAdmin, Status: models.UserStatusActive}
	if err := user.SetPassword(username + "-pw"); err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}
