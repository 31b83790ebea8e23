package state

import (
	"context"
	"testing"
)

func TestAdminAggregates(t *testing.T) {
	db := newMemoryDB()
	ctx := context.Background()
	alice, bob := db.as("alice"), db.as("bob")
	db.profiles["alice"] = Profile{ID: "alice", Role: PlatformAdmin}
	db.profiles["bob"] = Profile{ID: "bob"}

	g, _ := alice.CreateGroup(ctx, GroupInput{Name: "Street"})
	if _, err := bob.JoinGroupByToken(ctx, g.InviteToken); err != nil {
		t.Fatal(err)
	}
	saw, _ := alice.CreateItem(ctx, ItemInput{Name: "Saw", IsPublic: boolPtr(false)})
	bob.CreateItem(ctx, ItemInput{Name: "Axe"})
	bob.CreateItem(ctx, ItemInput{Name: "Help", Type: TypeRequest})
	seedShares(db, Share{ThingID: saw.ID, GroupID: g.ID})

	scope := NewScope(ctx)
	defer scope.Close()
	admin := NewAdmin(scope, alice)
	for _, tab := range []AdminTab{TabGroups, TabUsers, TabThings, TabRequests} {
		admin.Load("alice", tab)
	}
	scope.Wait()

	groups := admin.Groups.Items()
	if len(groups) != 1 || groups[0].Members != 2 || groups[0].Things != 1 {
		t.Errorf("unexpected group stats %+v", groups)
	}

	users := map[string]UserStat{}
	for _, u := range admin.Users.Items() {
		users[u.Profile.ID] = u
	}
	if u := users["alice"]; u.Groups != 1 || u.AdminGroups != 1 || u.Items != 1 {
		t.Errorf("unexpected alice stats %+v", u)
	}
	if u := users["bob"]; u.Groups != 1 || u.AdminGroups != 0 || u.Items != 2 {
		t.Errorf("unexpected bob stats %+v", u)
	}

	things := admin.Things.Items()
	if len(things) != 2 {
		t.Fatalf("admin must see private items too, got %+v", things)
	}
	for _, st := range things {
		want := 0
		if st.Item.ID == saw.ID {
			want = 1
		}
		if st.Groups != want {
			t.Errorf("item %d: groups %d, want %d", st.Item.ID, st.Groups, want)
		}
	}
	if len(admin.Requests.Items()) != 1 {
		t.Errorf("unexpected requests %+v", admin.Requests.Items())
	}

	if err := admin.DeleteGroup(ctx, g.ID); err != nil {
		t.Fatal(err)
	}
	if len(admin.Groups.Items()) != 0 {
		t.Error("deleted group still listed")
	}
}

func TestAdminCountsAreBestEffort(t *testing.T) {
	db := newMemoryDB()
	ctx := context.Background()
	alice := db.as("alice")
	alice.CreateGroup(ctx, GroupInput{Name: "Street"})
	db.setFail("ListMemberships", true)
	db.setFail("ListShares", true)

	scope := NewScope(ctx)
	defer scope.Close()
	admin := NewAdmin(scope, alice)
	admin.Load("alice", TabGroups)
	scope.Wait()

	if admin.Groups.Err() != "" {
		t.Fatalf("count failures must not fail the list: %s", admin.Groups.Err())
	}
	groups := admin.Groups.Items()
	if len(groups) != 1 || groups[0].Members != 0 || groups[0].Things != 0 {
		t.Errorf("expected zero counts, got %+v", groups)
	}
}

func TestAdminItemShareCountFailureFailsTab(t *testing.T) {
	db := newMemoryDB()
	ctx := context.Background()
	alice := db.as("alice")
	alice.CreateItem(ctx, ItemInput{Name: "Ladder"})
	alice.CreateItem(ctx, ItemInput{Name: "Tent", Type: TypeRequest})
	db.setFail("ListShares", true)

	scope := NewScope(ctx)
	defer scope.Close()
	admin := NewAdmin(scope, alice)
	admin.Load("alice", TabThings)
	admin.Load("alice", TabRequests)
	scope.Wait()

	for name, list := range map[string]*Collection[ItemStat, int64]{"things": admin.Things, "requests": admin.Requests} {
		if list.Err() != errBoom.Error() {
			t.Errorf("%s: expected %q, got %q", name, errBoom.Error(), list.Err())
		}
		if n := len(list.Items()); n != 0 {
			t.Errorf("%s: expected no rows, got %d", name, n)
		}
	}
}

func TestParseAdminTab(t *testing.T) {
	for in, want := range map[string]AdminTab{"": TabGroups, "users": TabUsers, "things": TabThings, "requests": TabRequests, "x": TabGroups} {
		if got := ParseAdminTab(in); got != want {
			t.Errorf("ParseAdminTab(%q) = %q, want %q", in, got, want)
		}
	}
}
