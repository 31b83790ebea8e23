package state

import (
	"context"
	"math"
	"reflect"
	"testing"
)

func TestCountKey(t *testing.T) {
	if got := CountKey([]int64{3, 1, 3, 2}); got != "1,2,3" {
		t.Errorf("unexpected key %q", got)
	}
	if got := CountKey(nil); got != "" {
		t.Errorf("unexpected key %q", got)
	}
}

func TestLoadGroupCounts(t *testing.T) {
	db := newMemoryDB()
	ctx := context.Background()
	alice := db.as("alice")
	g1, _ := alice.CreateGroup(ctx, GroupInput{Name: "a"})
	g2, _ := alice.CreateGroup(ctx, GroupInput{Name: "b"})
	if _, err := db.as("bob").JoinGroupByToken(ctx, g1.InviteToken); err != nil {
		t.Fatal(err)
	}
	seedShares(db, Share{ThingID: 100, GroupID: g1.ID}, Share{ThingID: 101, GroupID: g1.ID}, Share{ThingID: 100, GroupID: g2.ID})

	counts := LoadGroupCounts(ctx, alice, alice, []int64{g2.ID, g1.ID})
	if counts.Members[g1.ID] != 2 || counts.Members[g2.ID] != 1 {
		t.Errorf("unexpected member counts %v", counts.Members)
	}
	if counts.Things[g1.ID] != 2 || counts.Things[g2.ID] != 1 {
		t.Errorf("unexpected thing counts %v", counts.Things)
	}

	db.setFail("ListMemberships", true)
	counts = LoadGroupCounts(ctx, alice, alice, []int64{g1.ID})
	if len(counts.Members) != 0 || len(counts.Things) != 0 {
		t.Errorf("failure must yield empty counts, got %+v", counts)
	}
}

func TestOwnerCard(t *testing.T) {
	db := newMemoryDB()
	ctx := context.Background()
	db.profiles["alice"] = Profile{ID: "alice", FullName: strPtr(" Alice "), ContactInfo: strPtr("555")}
	db.profiles["blank"] = Profile{ID: "blank", FullName: strPtr("   ")}
	store := db.as("bob")

	if got := OwnerCard(ctx, store, "alice"); got != (Owner{UserID: "alice", Name: "Alice", ContactInfo: "555"}) {
		t.Errorf("unexpected card %+v", got)
	}
	if got := OwnerCard(ctx, store, "blank"); got.Name != UnknownOwner {
		t.Errorf("blank name must be unknown, got %+v", got)
	}
	if got := OwnerCard(ctx, store, "ghost"); got.Name != UnknownOwner || got.ContactInfo != "" {
		t.Errorf("missing profile must be unknown, got %+v", got)
	}
}

func TestLocationMarkers(t *testing.T) {
	db := newMemoryDB()
	ctx := context.Background()
	db.profiles["b"] = Profile{ID: "b", FullName: strPtr("Bee"), Latitude: floatPtr(1), Longitude: floatPtr(2)}
	db.profiles["a"] = Profile{ID: "a", Latitude: floatPtr(3), Longitude: floatPtr(4)}
	db.profiles["c"] = Profile{ID: "c", Latitude: floatPtr(math.NaN()), Longitude: floatPtr(1)}
	db.profiles["d"] = Profile{ID: "d"}

	items := []Item{
		{ID: 1, UserID: "b"}, {ID: 2, UserID: "a"}, {ID: 3, UserID: "b"},
		{ID: 4, UserID: "c"}, {ID: 5, UserID: "d"},
	}
	markers := LocationMarkers(ctx, db.as("x"), items)
	if len(markers) != 2 {
		t.Fatalf("expected 2 markers, got %+v", markers)
	}
	if markers[0].UserID != "a" || markers[1].UserID != "b" {
		t.Errorf("markers must be ordered by user id: %+v", markers)
	}
	if got := itemIDs(markers[1].Items); !reflect.DeepEqual(got, []int64{1, 3}) {
		t.Errorf("unexpected items for b: %v", got)
	}
	if markers[1].FullName != "Bee" || markers[1].Latitude != 1 {
		t.Errorf("unexpected marker %+v", markers[1])
	}

	db.setFail("ListProfiles", true)
	if got := LocationMarkers(ctx, db.as("x"), items); got != nil {
		t.Errorf("failure must yield no markers, got %+v", got)
	}
}
