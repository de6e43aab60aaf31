package services

import (
	"context"
	"testing"

	"abserver/internal/database/dbtest"
	apperrors "abserver/pkg/errors"

	"gorm.io/gorm"
)

// 测试中使用的颜色
const (
	colorGreen int64 = 0xFF00FF00
	colorRed   int64 = 0xFFFF0000
)

func newTestDB(t *testing.T) (*gorm.DB, context.Context) {
	t.Helper()
	return dbtest.New(t), context.Background()
}

func expectCode(t *testing.T, err error, code int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", code)
	}
	if got := apperrors.CodeOf(err); got != code {
		t.Fatalf("code = %d, want %d (err: %v)", got, code, err)
	}
}

func mustPersonal(t *testing.T, db *gorm.DB, userID uint) string {
	t.Helper()
	guid, err := NewAccessService(db).EnsurePersonal(context.Background(), userID)
	if err != nil {
		t.Fatalf("EnsurePersonal: %v", err)
	}
	return guid
}

func mustSharedBook(t *testing.T, db *gorm.DB, ownerID uint, name string) string {
	t.Helper()
	book, err := NewAddressBookService(db).Create(context.Background(), CreateAddressBookInput{Name: name, OwnerID: ownerID})
	if err != nil {
		t.Fatalf("create address book: %v", err)
	}
	return book.GUID
}

func peerByID(peers []PeerPayload, id string) (PeerPayload, bool) {
	for _, p := range peers {
		if p.ID == id {
			return p, true
		}
	}
	return PeerPayload{}, false
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
