package state

import (
	"context"
	"errors"
	"sync"
)

// ProfileGate sends users with an incomplete profile to the settings view.
// It evaluates once per user and location: repeating a check with the same
// pair does nothing, so a profile emptied after a passing check is only
// caught by the next navigation or user change.
type ProfileGate struct {
	profiles ProfileStore

	mu   sync.Mutex
	last string
}

func NewProfileGate(profiles ProfileStore) *ProfileGate {
	return &ProfileGate{profiles: profiles}
}

// Check returns the location to redirect to, or "" when none is needed.
// A missing profile counts as incomplete; other read failures never
// redirect.
func (g *ProfileGate) Check(ctx context.Context, userID, location string) string {
	if userID == "" {
		return ""
	}

	key := userID + "\x00" + location
	g.mu.Lock()
	if key == g.last {
		g.mu.Unlock()
		return ""
	}
	g.last = key
	g.mu.Unlock()

	if onSettings(userID, location) {
		return ""
	}

	p, err := g.profiles.GetProfile(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		return SettingsPath(userID)
	case err != nil:
		return ""
	case !p.IsComplete():
		return SettingsPath(userID)
	}
	return ""
}

func onSettings(userID, location string) bool {
	r := ParseRoute(location)
	return r.View == ViewSettings || (r.View == ViewUser && r.UserID == userID)
}

// IsComplete reports whether the full name and contact info are both filled in
func (p Profile) IsComplete() bool {
	return nonBlank(p.FullName) && nonBlank(p.ContactInfo)
}

// DisplayName is the trimmed full name, or "" when unset
func (p Profile) DisplayName() string {
	if !nonBlank(p.FullName) {
		return ""
	}
	return trim(*p.FullName)
}

// CanViewAdmin reports whether the admin view should be offered to p. The
// server enforces the role on every admin route regardless.
func CanViewAdmin(p *Profile) bool {
	return p != nil && p.Role == PlatformAdmin
}
