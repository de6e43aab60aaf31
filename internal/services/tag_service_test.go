package services

import (
	"reflect"
	"testing"

	"abserver/internal/database/dbtest"
	"abserver/internal/models"
	apperrors "abserver/pkg/errors"
	"abserver/pkg/pagination"
)

func TestAddTagIgnoresDuplicates(t *testing.T) {
	db, ctx := newTestDB(t)
	alice := dbtest.CreateUser(t, db, "alice", false)
	guid := mustPersonal(t, db, alice.ID)
	tags := NewTagService(db)

	if err := tags.Add(ctx, guid, "work", colorGreen); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := tags.Add(ctx, guid, "work", colorRed); err != nil {
		t.Fatalf("duplicate Add must succeed: %v", err)
	}
	expectCode(t, tags.Add(ctx, guid, "", colorRed), apperrors.CodeInvalidParam)

	list, err := tags.List(ctx, guid)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []TagPayload{{Name: "work", Color: colorGreen}}
	if !reflect.DeepEqual(list, want) {
		t.Fatalf("got %+v, want %+v", list, want)
	}
}

func TestRenameTag(t *testing.T) {
	db, ctx := newTestDB(t)
	alice := dbtest.CreateUser(t, db, "alice", false)
	guid := mustPersonal(t, db, alice.ID)
	tags := NewTagService(db)
	peers := NewPeerService(db)

	for _, name := range []string{"work", "home"} {
		if err := tags.Add(ctx, guid, name, models.DefaultTagColor); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := peers.Upsert(ctx, guid, PeerPayload{ID: "rd1", Tags: []string{"work"}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	expectCode(t, tags.Rename(ctx, guid, "work", "home"), apperrors.CodeConflict)

	if err := tags.Rename(ctx, guid, "work", "office"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	list, _, err := peers.List(ctx, guid, pagination.New(0, 0))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(list[0].Tags, []string{"office"}) {
		t.Fatalf("link must follow the rename, got %v", list[0].Tags)
	}
}

func TestRecolorAndDeleteTags(t *testing.T) {
	db, ctx := newTestDB(t)
	alice := dbtest.CreateUser(t, db, "alice", false)
	guid := mustPersonal(t, db, alice.ID)
	tags := NewTagService(db)
	peers := NewPeerService(db)

	for _, name := range []string{"a", "b", "c"} {
		if err := tags.Add(ctx, guid, name, models.DefaultTagColor); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := tags.Recolor(ctx, guid, "c", colorRed); err != nil {
		t.Fatalf("Recolor: %v", err)
	}
	if err := peers.Upsert(ctx, guid, PeerPayload{ID: "rd1", Tags: []string{"a", "b", "c"}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := tags.Delete(ctx, guid, MergeNames([]string{"a", "missing"}, strPtr("b"))); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	list, err := tags.List(ctx, guid)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if want := []TagPayload{{Name: "c", Color: colorRed}}; !reflect.DeepEqual(list, want) {
		t.Fatalf("got %+v, want %+v", list, want)
	}
	if n := countRows(t, db, &models.PeerTag{}, ""); n != 1 {
		t.Fatalf("links = %d, want 1", n)
	}
}
