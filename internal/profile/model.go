package profile

import (
	"strings"
	"time"
)

// Role is the platform-wide role of a user
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Profile is the public face of a user, one per account
type Profile struct {
	ID          string    `json:"id"`
	FullName    *string   `json:"full_name,omitempty"`
	ContactInfo *string   `json:"contact_info,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Role        Role      `json:"role"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsComplete reports whether both the full name and the contact info are filled in
func (p *Profile) IsComplete() bool {
	return p != nil && nonBlank(p.FullName) && nonBlank(p.ContactInfo)
}

// IsAdmin reports whether the profile carries the admin role
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

func nonBlank(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
