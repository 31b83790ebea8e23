package group

import "time"

// MemberRole represents the role of a group member
type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "ADMIN"
	MemberRoleMember MemberRole = "MEMBER"
)

// Valid reports whether r is a known role
func (r MemberRole) Valid() bool {
	return r == MemberRoleAdmin || r == MemberRoleMember
}

// Group represents a group in the system
type Group struct {
	ID          int64
	Name        string
	Description *string
	IsPublic    bool
	InviteToken string
	CreatedBy   *string
	Latitude    *float64
	Longitude   *float64
	CreatedAt   time.Time

	// Role of the requesting user, empty when not a member
	MyRole MemberRole
}

// GroupMember represents a user's membership in a group
type GroupMember struct {
	GroupID  int64
	UserID   string
	Role     MemberRole
	JoinedAt time.Time

	// Populated from JOIN with profiles
	FullName *string
}

// InvitePreview is what an invite token reveals before joining
type InvitePreview struct {
	ID            int64
	Name          string
	Description   *string
	AlreadyMember bool
}

// MembershipFilter narrows a membership query
type MembershipFilter struct {
	GroupIDs []int64
	UserIDs  []string
}
