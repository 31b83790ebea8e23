package state

import (
	"context"
	"testing"
)

func TestProfileGate(t *testing.T) {
	ctx := context.Background()

	t.Run("missing profile redirects once", func(t *testing.T) {
		db := newMemoryDB()
		gate := NewProfileGate(db.as("alice"))

		if got := gate.Check(ctx, "alice", "/"); got != "/user/alice" {
			t.Fatalf("expected redirect to /user/alice, got %q", got)
		}
		if got := gate.Check(ctx, "alice", "/"); got != "" {
			t.Errorf("repeated check must not redirect again, got %q", got)
		}
		if got := gate.Check(ctx, "alice", "/groups"); got != "/user/alice" {
			t.Errorf("new location must be checked again, got %q", got)
		}
	})

	t.Run("no redirect on settings", func(t *testing.T) {
		db := newMemoryDB()
		gate := NewProfileGate(db.as("alice"))
		for _, loc := range []string{"/settings", "/user/alice"} {
			if got := gate.Check(ctx, "alice", loc); got != "" {
				t.Errorf("%s: unexpected redirect %q", loc, got)
			}
		}
		if got := gate.Check(ctx, "alice", "/user/bob"); got != "/user/alice" {
			t.Errorf("another user's page must redirect, got %q", got)
		}
	})

	t.Run("incomplete and complete", func(t *testing.T) {
		db := newMemoryDB()
		db.profiles["alice"] = Profile{ID: "alice", FullName: strPtr("Alice"), ContactInfo: strPtr("  ")}
		gate := NewProfileGate(db.as("alice"))
		if got := gate.Check(ctx, "alice", "/"); got != "/user/alice" {
			t.Errorf("blank contact info must redirect, got %q", got)
		}

		db.profiles["alice"] = Profile{ID: "alice", FullName: strPtr("Alice"), ContactInfo: strPtr("@alice")}
		if got := gate.Check(ctx, "alice", "/groups"); got != "" {
			t.Errorf("complete profile must not redirect, got %q", got)
		}
	})

	t.Run("read failure never redirects", func(t *testing.T) {
		db := newMemoryDB()
		db.setFail("GetProfile", true)
		gate := NewProfileGate(db.as("alice"))
		if got := gate.Check(ctx, "alice", "/"); got != "" {
			t.Errorf("unexpected redirect %q", got)
		}
	})

	t.Run("signed out", func(t *testing.T) {
		gate := NewProfileGate(newMemoryDB().as(""))
		if got := gate.Check(ctx, "", "/"); got != "" {
			t.Errorf("unexpected redirect %q", got)
		}
	})
}

func TestCanViewAdmin(t *testing.T) {
	tests := []struct {
		name string
		p    *Profile
		want bool
	}{
		{"nil", nil, false},
		{"user", &Profile{Role: "user"}, false},
		{"admin", &Profile{Role: PlatformAdmin}, true},
		{"group admin role is not platform admin", &Profile{Role: string(RoleAdmin)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanViewAdmin(tt.p); got != tt.want {
				t.Errorf("CanViewAdmin() = %v, want %v", got, tt.want)
			}
		})
	}
}
