package services

import (
	"reflect"
	"testing"

	"abserver/internal/database/dbtest"
	"abserver/internal/models"
)

func TestListShared(t *testing.T) {
	db, ctx := newTestDB(t)
	owner := dbtest.CreateUser(t, db, "owner", false)
	carol := dbtest.CreateUser(t, db, "carol", false)
	gone := dbtest.CreateUser(t, db, "gone", false)
	books := NewAddressBookService(db)
	groups := NewGroupService(db)

	team := mustSharedBook(t, db, owner.ID, "Team")
	lab := mustSharedBook(t, db, gone.ID, "Lab")
	mustSharedBook(t, db, owner.ID, "Hidden")
	personal := mustPersonal(t, db, owner.ID)

	group, err := groups.Create(ctx, CreateGroupInput{Name: "ops"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if err := groups.AddMember(ctx, group.ID, carol.ID); err != nil {
		t.Fatalf("add member: %v", err)
	}

	grants := []struct {
		guid  string
		input GrantShareInput
	}{
		{team, GrantShareInput{UserID: &carol.ID, Rule: models.RuleRead}},
		{team, GrantShareInput{GroupID: &group.ID, Rule: models.RuleFull}},
		{lab, GrantShareInput{GroupID: &group.ID, Rule: models.RuleReadWrite}},
	}
	for _, g := range grants {
		if _, err := books.Grant(ctx, g.guid, g.input); err != nil {
			t.Fatalf("grant: %v", err)
		}
	}
	// 个人地址簿即使存在授权记录也不出现在共享列表中
	if err := db.Create(&models.Share{ABGuid: personal, UserID: &carol.ID, Rule: models.RuleRead}).Error; err != nil {
		t.Fatalf("insert share: %v", err)
	}
	// 所有者被删除后 owner 为空字符串
	if err := db.Delete(&models.User{}, gone.ID).Error; err != nil {
		t.Fatalf("delete owner: %v", err)
	}

	profiles, err := NewShareService(db).ListShared(ctx, carol.ID)
	if err != nil {
		t.Fatalf("ListShared: %v", err)
	}
	want := []AbProfile{
		{GUID: lab, Name: "Lab", Owner: "", Rule: models.RuleReadWrite},
		{GUID: team, Name: "Team", Owner: "owner", Rule: models.RuleFull},
	}
	if !reflect.DeepEqual(profiles, want) {
		t.Fatalf("got %+v\nwant %+v", profiles, want)
	}

	none, err := NewShareService(db).ListShared(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListShared: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("owner has no shares, got %+v", none)
	}
}
