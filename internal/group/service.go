package group

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/fkhayef/thinglibrary/internal/geo"
	"github.com/fkhayef/thinglibrary/internal/metrics"
)

// Common errors
var (
	ErrGroupNotFound    = errors.New("group not found")
	ErrMemberNotFound   = errors.New("member not found")
	ErrInviteNotFound   = errors.New("invite link is invalid or has expired")
	ErrNameRequired     = errors.New("name is required")
	ErrLocationRequired = errors.New("group location is required")
	ErrInvalidRole      = errors.New("role must be 'ADMIN' or 'MEMBER'")
	ErrNotAuthorized    = errors.New("not authorized to perform this action")
	ErrLastAdmin        = errors.New("a group with members must keep at least one admin")
	ErrNotPublic        = errors.New("group can only be joined with an invite link")
	ErrAlreadyMember    = errors.New("user is already a member of this group")
)

// Store is the persistence the group service needs
type Store interface {
	Create(ctx context.Context, g *Group) (*Group, error)
	GetByID(ctx context.Context, id int64, viewerID string) (*Group, error)
	GetByToken(ctx context.Context, token string) (*Group, error)
	ListByUserID(ctx context.Context, userID string) ([]*Group, error)
	ListPublic(ctx context.Context, userID string) ([]*Group, error)
	ListAll(ctx context.Context) ([]*Group, error)
	Update(ctx context.Context, g *Group) error
	Delete(ctx context.Context, id int64) error
	AddMember(ctx context.Context, groupID int64, userID string, role MemberRole) (bool, error)
	GetMember(ctx context.Context, groupID int64, userID string) (*GroupMember, error)
	GetMembers(ctx context.Context, groupID int64) ([]*GroupMember, error)
	Memberships(ctx context.Context, viewerID string, f MembershipFilter) ([]*GroupMember, error)
	UpdateRole(ctx context.Context, groupID int64, userID string, role MemberRole) error
	RemoveMember(ctx context.Context, groupID int64, userID string) error
	CountRoles(ctx context.Context, groupID int64) (members, admins int, err error)
}

// Service handles group business logic
type Service struct {
	store   Store
	metrics *metrics.Metrics
	origin  string
}

// NewService creates a new group service. origin prefixes invite links.
func NewService(store Store, m *metrics.Metrics, origin string) *Service {
	return &Service{store: store, metrics: m, origin: origin}
}

// Origin is the public origin used for invite links
func (s *Service) Origin() string {
	return s.origin
}

// InviteLink builds the shareable join URL for a token
func InviteLink(origin, token string) string {
	return strings.TrimRight(origin, "/") + "/join/" + url.PathEscape(token)
}

// NewInviteToken returns a fresh opaque token
func NewInviteToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Create creates a new group and adds the creator as admin
func (s *Service) Create(ctx context.Context, creatorID string, req *CreateGroupRequest) (*Group, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if req.Latitude == nil || req.Longitude == nil {
		return nil, ErrLocationRequired
	}
	if err := geo.Validate(req.Latitude, req.Longitude); err != nil {
		return nil, err
	}

	group, err := s.store.Create(ctx, &Group{
		Name:        name,
		Description: cleanOptional(req.Description),
		IsPublic:    req.IsPublic,
		InviteToken: NewInviteToken(),
		CreatedBy:   &creatorID,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Group created", "group_id", group.ID, "user_id", creatorID)
	return group, nil
}

// Get returns a group the viewer belongs to, or a public group
func (s *Service) Get(ctx context.Context, viewerID string, id int64) (*Group, error) {
	group, err := s.store.GetByID(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	if group == nil || (group.MyRole == "" && !group.IsPublic) {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

// ListMine returns the groups the user belongs to
func (s *Service) ListMine(ctx context.Context, userID string) ([]*Group, error) {
	return s.store.ListByUserID(ctx, userID)
}

// ListPublic returns public groups the user has not joined
func (s *Service) ListPublic(ctx context.Context, userID string) ([]*Group, error) {
	return s.store.ListPublic(ctx, userID)
}

// ListAll returns every group
func (s *Service) ListAll(ctx context.Context) ([]*Group, error) {
	return s.store.ListAll(ctx)
}

// Update modifies a group; only admins may update
func (s *Service) Update(ctx context.Context, userID string, id int64, req *UpdateGroupRequest) (*Group, error) {
	group, err := s.requireAdmin(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		group.Name = name
	}
	if req.Description != nil {
		group.Description = cleanOptional(req.Description)
	}
	if req.IsPublic != nil {
		group.IsPublic = *req.IsPublic
	}
	if req.Latitude != nil || req.Longitude != nil {
		if err := geo.Validate(req.Latitude, req.Longitude); err != nil {
			return nil, err
		}
		group.Latitude, group.Longitude = req.Latitude, req.Longitude
	}

	if err := s.store.Update(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// Delete removes a group; only admins may delete
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	if _, err := s.requireAdmin(ctx, userID, id); err != nil {
		return err
	}
	return s.DeleteAny(ctx, id)
}

// DeleteAny removes a group without a membership check
func (s *Service) DeleteAny(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("Group deleted", "group_id", id)
	return nil
}

// GetMembers lists the members of a group the viewer belongs to
func (s *Service) GetMembers(ctx context.Context, viewerID string, groupID int64) ([]*GroupMember, error) {
	group, err := s.Get(ctx, viewerID, groupID)
	if err != nil {
		return nil, err
	}
	if group.MyRole == "" {
		return nil, ErrNotAuthorized
	}
	return s.store.GetMembers(ctx, groupID)
}

// Memberships lists membership rows visible to viewerID
func (s *Service) Memberships(ctx context.Context, viewerID string, f MembershipFilter) ([]*GroupMember, error) {
	return s.store.Memberships(ctx, viewerID, f)
}

// AllMemberships lists membership rows without restriction
func (s *Service) AllMemberships(ctx context.Context, f MembershipFilter) ([]*GroupMember, error) {
	return s.store.Memberships(ctx, "", f)
}

// UpdateMemberRole changes a member's role; only admins may do this and the
// last admin cannot demote themselves while others remain
func (s *Service) UpdateMemberRole(ctx context.Context, actorID string, groupID int64, userID string, role MemberRole) (*GroupMember, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if _, err := s.requireAdmin(ctx, actorID, groupID); err != nil {
		return nil, err
	}

	member, err := s.store.GetMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	if member.Role == role {
		return member, nil
	}

	if member.Role == MemberRoleAdmin {
		if err := s.guardLastAdmin(ctx, groupID, false); err != nil {
			return nil, err
		}
	}

	if err := s.store.UpdateRole(ctx, groupID, userID, role); err != nil {
		return nil, err
	}
	member.Role = role
	return member, nil
}

// RemoveMember removes another member; only admins may do this
func (s *Service) RemoveMember(ctx context.Context, actorID string, groupID int64, userID string) error {
	if actorID == userID {
		return s.Leave(ctx, userID, groupID)
	}
	if _, err := s.requireAdmin(ctx, actorID, groupID); err != nil {
		return err
	}
	return s.remove(ctx, groupID, userID)
}

// Leave removes the caller from a group
func (s *Service) Leave(ctx context.Context, userID string, groupID int64) error {
	return s.remove(ctx, groupID, userID)
}

func (s *Service) remove(ctx context.Context, groupID int64, userID string) error {
	member, err := s.store.GetMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrMemberNotFound
	}

	if member.Role == MemberRoleAdmin {
		if err := s.guardLastAdmin(ctx, groupID, true); err != nil {
			return err
		}
	}

	if err := s.store.RemoveMember(ctx, groupID, userID); err != nil {
		return err
	}
	slog.Info("Member left group", "group_id", groupID, "user_id", userID)
	return nil
}

// guardLastAdmin refuses to drop the only admin of a group that still has
// other members. The last remaining member may always leave.
func (s *Service) guardLastAdmin(ctx context.Context, groupID int64, leaving bool) error {
	members, admins, err := s.store.CountRoles(ctx, groupID)
	if err != nil {
		return err
	}
	if admins > 1 {
		return nil
	}
	if leaving && members <= 1 {
		return nil
	}
	return ErrLastAdmin
}

// JoinByToken adds the user to the group behind token. Joining twice is a
// no-op that returns the same group id.
func (s *Service) JoinByToken(ctx context.Context, userID, token string) (int64, error) {
	group, err := s.byToken(ctx, token)
	if err != nil {
		return 0, err
	}
	if err := s.join(ctx, group.ID, userID); err != nil {
		return 0, err
	}
	return group.ID, nil
}

// JoinPublic adds the user to a public group without a token
func (s *Service) JoinPublic(ctx context.Context, userID string, groupID int64) (*Group, error) {
	group, err := s.store.GetByID(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	if group.MyRole != "" {
		return nil, ErrAlreadyMember
	}
	if !group.IsPublic {
		return nil, ErrNotPublic
	}

	if err := s.join(ctx, groupID, userID); err != nil {
		return nil, err
	}
	group.MyRole = MemberRoleMember
	return group, nil
}

func (s *Service) join(ctx context.Context, groupID int64, userID string) error {
	created, err := s.store.AddMember(ctx, groupID, userID, MemberRoleMember)
	if err != nil {
		return err
	}
	if created {
		s.metrics.GroupJoins.Inc()
		slog.Info("Member joined group", "group_id", groupID, "user_id", userID)
	}
	return nil
}

// PreviewByToken describes the group behind token and whether the user is
// already a member
func (s *Service) PreviewByToken(ctx context.Context, userID, token string) (*InvitePreview, error) {
	group, err := s.byToken(ctx, token)
	if err != nil {
		return nil, err
	}

	member, err := s.store.GetMember(ctx, group.ID, userID)
	if err != nil {
		return nil, err
	}

	return &InvitePreview{
		ID:            group.ID,
		Name:          group.Name,
		Description:   group.Description,
		AlreadyMember: member != nil,
	}, nil
}

func (s *Service) byToken(ctx context.Context, token string) (*Group, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInviteNotFound
	}
	group, err := s.store.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrInviteNotFound
	}
	return group, nil
}

func (s *Service) requireAdmin(ctx context.Context, userID string, groupID int64) (*Group, error) {
	group, err := s.Get(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	if group.MyRole != MemberRoleAdmin {
		return nil, ErrNotAuthorized
	}
	return group, nil
}

func cleanOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
