// Package state keeps client-held collections consistent with the remote
// store: session tracking, optimistic list mutation, item/group sharing,
// bulk actions, profile gating and admin aggregation.
package state

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is matched by store errors for missing rows
var ErrNotFound = errors.New("not found")

// ItemType distinguishes things from requests
type ItemType string

const (
	TypeThing   ItemType = "thing"
	TypeRequest ItemType = "request"
)

// Role is a group membership role
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// PlatformAdmin is the profile role that unlocks the admin view
const PlatformAdmin = "admin"

type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	UserID      string    `json:"user_id"`
	Type        ItemType  `json:"type"`
	IsPublic    bool      `json:"is_public"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Group struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	IsPublic    bool      `json:"is_public"`
	InviteToken string    `json:"invite_token,omitempty"`
	InviteLink  string    `json:"invite_link,omitempty"`
	CreatedBy   *string   `json:"created_by,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	MyRole      Role      `json:"my_role,omitempty"`
}

type Membership struct {
	GroupID  int64     `json:"group_id"`
	UserID   string    `json:"user_id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
	FullName *string   `json:"full_name,omitempty"`
}

type Share struct {
	ThingID int64 `json:"thing_id"`
	GroupID int64 `json:"group_id"`
}

type Profile struct {
	ID          string   `json:"id"`
	FullName    *string  `json:"full_name"`
	ContactInfo *string  `json:"contact_info"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Role        string   `json:"role"`
}

// InvitePreview is what an invite token reveals before joining
type InvitePreview struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Description   *string `json:"description,omitempty"`
	AlreadyMember bool    `json:"already_member"`
}

// ItemQuery narrows an item listing; nil slices do not filter
type ItemQuery struct {
	Type    ItemType
	UserIDs []string
	IDs     []int64
	Order   string
}

// MembershipQuery narrows a membership listing
type MembershipQuery struct {
	GroupIDs []int64
	UserIDs  []string
}

// ShareQuery narrows a share listing
type ShareQuery struct {
	ThingIDs []int64
	GroupIDs []int64
}

type ItemInput struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Type        ItemType `json:"type,omitempty"`
	IsPublic    *bool    `json:"is_public,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// ItemUpdate is a partial item update
type ItemUpdate struct {
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	IsPublic      *bool    `json:"is_public,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	ClearLocation bool     `json:"clear_location,omitempty"`
}

type GroupInput struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	IsPublic    bool     `json:"is_public"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// GroupUpdate is a partial group update
type GroupUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	IsPublic    *bool    `json:"is_public,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

type ProfileInput struct {
	FullName    *string  `json:"full_name,omitempty"`
	ContactInfo *string  `json:"contact_info,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// ItemStore reads and writes items
type ItemStore interface {
	ListItems(ctx context.Context, q ItemQuery) ([]Item, error)
	GetItem(ctx context.Context, id int64) (Item, error)
	CreateItem(ctx context.Context, in ItemInput) (Item, error)
	UpdateItem(ctx context.Context, id int64, in ItemUpdate) (Item, error)
	DeleteItem(ctx context.Context, id int64) error
}

// GroupStore reads and writes groups and memberships
type GroupStore interface {
	ListMyGroups(ctx context.Context) ([]Group, error)
	ListPublicGroups(ctx context.Context) ([]Group, error)
	GetGroup(ctx context.Context, id int64) (Group, error)
	CreateGroup(ctx context.Context, in GroupInput) (Group, error)
	UpdateGroup(ctx context.Context, id int64, in GroupUpdate) (Group, error)
	DeleteGroup(ctx context.Context, id int64) error
	ListMembers(ctx context.Context, groupID int64) ([]Membership, error)
	ListMemberships(ctx context.Context, q MembershipQuery) ([]Membership, error)
	JoinPublicGroup(ctx context.Context, id int64) (Group, error)
	LeaveGroup(ctx context.Context, id int64) error
	JoinGroupByToken(ctx context.Context, token string) (int64, error)
	GetGroupByInviteToken(ctx context.Context, token string) (InvitePreview, error)
}

// ShareStore reads and writes item to group shares
type ShareStore interface {
	ListShares(ctx context.Context, q ShareQuery) ([]Share, error)
	AddShares(ctx context.Context, shares []Share) error
	RemoveShare(ctx context.Context, s Share) error
	ReplaceShares(ctx context.Context, thingID int64, groupIDs []int64) error
}

// ProfileStore reads and writes profiles
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (Profile, error)
	ListProfiles(ctx context.Context, ids []string) ([]Profile, error)
	SaveProfile(ctx context.Context, in ProfileInput) (Profile, error)
}

// AdminStore is the unfiltered read surface behind the admin role
type AdminStore interface {
	AdminListGroups(ctx context.Context) ([]Group, error)
	AdminListUsers(ctx context.Context) ([]Profile, error)
	AdminListItems(ctx context.Context, q ItemQuery) ([]Item, error)
	AdminListMemberships(ctx context.Context, q MembershipQuery) ([]Membership, error)
	AdminListShares(ctx context.Context, q ShareQuery) ([]Share, error)
	AdminDeleteGroup(ctx context.Context, id int64) error
}

// Store is the full remote store boundary
type Store interface {
	ItemStore
	GroupStore
	ShareStore
	ProfileStore
	AdminStore
}

// User is the identity attached to a session
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an authenticated session
type Session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

// AuthEvent names a session change
type AuthEvent string

const (
	EventSignedIn  AuthEvent = "SIGNED_IN"
	EventSignedOut AuthEvent = "SIGNED_OUT"
)

// Auth is the authentication boundary
type Auth interface {
	GetSession(ctx context.Context) (*Session, error)
	OnAuthStateChange(fn func(event AuthEvent, s *Session)) (unsubscribe func())
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
}

// Message renders err as the single human-readable string shown on the
// panel that issued the call
func Message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
