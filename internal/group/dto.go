package group

import "time"

// CreateGroupRequest represents the request to create a new group
type CreateGroupRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	IsPublic    bool     `json:"is_public"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// UpdateGroupRequest represents the request to update a group
type UpdateGroupRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	IsPublic    *bool    `json:"is_public,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// UpdateMemberRequest represents the request to change a member's role
type UpdateMemberRequest struct {
	Role MemberRole `json:"role"`
}

// InviteTokenRequest is the body of both invite token calls
type InviteTokenRequest struct {
	InviteToken string `json:"invite_token"`
}

// JoinResponse is returned after joining by token
type JoinResponse struct {
	GroupID int64 `json:"group_id"`
}

// GroupResponse represents the response for a group. The invite token and
// link are only present for members.
type GroupResponse struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	IsPublic    bool       `json:"is_public"`
	InviteToken string     `json:"invite_token,omitempty"`
	InviteLink  string     `json:"invite_link,omitempty"`
	CreatedBy   *string    `json:"created_by,omitempty"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	MyRole      MemberRole `json:"my_role,omitempty"`
}

// MemberResponse represents a membership row
type MemberResponse struct {
	GroupID  int64      `json:"group_id"`
	UserID   string     `json:"user_id"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
	FullName *string    `json:"full_name,omitempty"`
}

// InvitePreviewResponse is the result of looking up an invite token
type InvitePreviewResponse struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Description   *string `json:"description,omitempty"`
	AlreadyMember bool    `json:"already_member"`
}

// ToResponse converts a Group model to a GroupResponse DTO. Admin views pass
// revealToken to expose the token of groups they are not a member of.
func (g *Group) ToResponse(origin string, revealToken bool) *GroupResponse {
	resp := &GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		IsPublic:    g.IsPublic,
		CreatedBy:   g.CreatedBy,
		Latitude:    g.Latitude,
		Longitude:   g.Longitude,
		CreatedAt:   g.CreatedAt,
		MyRole:      g.MyRole,
	}
	if g.MyRole != "" || revealToken {
		resp.InviteToken = g.InviteToken
		resp.InviteLink = InviteLink(origin, g.InviteToken)
	}
	return resp
}

// ToResponse converts a GroupMember model to a MemberResponse DTO
func (m *GroupMember) ToResponse() *MemberResponse {
	return &MemberResponse{
		GroupID:  m.GroupID,
		UserID:   m.UserID,
		Role:     m.Role,
		JoinedAt: m.JoinedAt,
		FullName: m.FullName,
	}
}

// ToResponse converts an InvitePreview to its DTO
func (p *InvitePreview) ToResponse() *InvitePreviewResponse {
	return &InvitePreviewResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		AlreadyMember: p.AlreadyMember,
	}
}

// GroupResponses converts a slice of groups
func GroupResponses(groups []*Group, origin string, revealToken bool) []*GroupResponse {
	out := make([]*GroupResponse, len(groups))
	for i, g := range groups {
		out[i] = g.ToResponse(origin, revealToken)
	}
	return out
}

// MemberResponses converts a slice of memberships
func MemberResponses(members []*GroupMember) []*MemberResponse {
	out := make([]*MemberResponse, len(members))
	for i, m := range members {
		out[i] = m.ToResponse()
	}
	return out
}
