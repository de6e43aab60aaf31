package main

import (
	"testing"

	"abserver/internal/database/dbtest"
	"abserver/internal/models"
	"abserver/pkg/config"
)

func TestSeedDataCreatesAdminOnce(t *testing.T) {
	db := dbtest.New(t)
	admin := config.AdminConfig{Username: "root", Password: "pw"}

	for i := 0; i < 2; i++ {
		if err := seedData(db, admin); err != nil {
			t.Fatalf("seedData: %v", err)
		}
	}

	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		t.Fatalf("load users: %v", err)
	}
	if len(users) != 1 || users[0].Username != "root" || !users[0].IsAdmin || !users[0].CheckPassword("pw") {
		t.Fatalf("unexpected users %+v", users)
	}
}
