package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fkhayef/thinglibrary/internal/state"
)

var _ state.Store = (*Client)(nil)
var _ state.Auth = (*Client)(nil)

func itemQuery(q state.ItemQuery) url.Values {
	v := url.Values{}
	if q.Type != "" {
		v.Set("type", string(q.Type))
	}
	setStrings(v, "user_id", q.UserIDs)
	setIDs(v, "ids", q.IDs)
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	return v
}

func membershipQuery(q state.MembershipQuery) url.Values {
	v := url.Values{}
	setIDs(v, "group_id", q.GroupIDs)
	setStrings(v, "user_id", q.UserIDs)
	return v
}

func shareQuery(q state.ShareQuery) url.Values {
	v := url.Values{}
	setIDs(v, "thing_id", q.ThingIDs)
	setIDs(v, "group_id", q.GroupIDs)
	return v
}

// Items

func (c *Client) ListItems(ctx context.Context, q state.ItemQuery) ([]state.Item, error) {
	var items []state.Item
	err := c.do(ctx, http.MethodGet, "/items", itemQuery(q), nil, &items)
	return items, err
}

func (c *Client) GetItem(ctx context.Context, id int64) (state.Item, error) {
	var it state.Item
	err := c.do(ctx, http.MethodGet, idPath("/items", id), nil, nil, &it)
	return it, err
}

func (c *Client) CreateItem(ctx context.Context, in state.ItemInput) (state.Item, error) {
	var it state.Item
	err := c.do(ctx, http.MethodPost, "/items", nil, in, &it)
	return it, err
}

func (c *Client) UpdateItem(ctx context.Context, id int64, in state.ItemUpdate) (state.Item, error) {
	var it state.Item
	err := c.do(ctx, http.MethodPut, idPath("/items", id), nil, in, &it)
	return it, err
}

func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/items", id), nil, nil, nil)
}

// Groups

func (c *Client) ListMyGroups(ctx context.Context) ([]state.Group, error) {
	var groups []state.Group
	err := c.do(ctx, http.MethodGet, "/groups", nil, nil, &groups)
	return groups, err
}

// ListPublicGroups lists public groups the caller has not joined
func (c *Client) ListPublicGroups(ctx context.Context) ([]state.Group, error) {
	var groups []state.Group
	err := c.do(ctx, http.MethodGet, "/groups/public", nil, nil, &groups)
	return groups, err
}

func (c *Client) GetGroup(ctx context.Context, id int64) (state.Group, error) {
	var g state.Group
	err := c.do(ctx, http.MethodGet, idPath("/groups", id), nil, nil, &g)
	return g, err
}

func (c *Client) CreateGroup(ctx context.Context, in state.GroupInput) (state.Group, error) {
	var g state.Group
	err := c.do(ctx, http.MethodPost, "/groups", nil, in, &g)
	return g, err
}

func (c *Client) UpdateGroup(ctx context.Context, id int64, in state.GroupUpdate) (state.Group, error) {
	var g state.Group
	err := c.do(ctx, http.MethodPut, idPath("/groups", id), nil, in, &g)
	return g, err
}

func (c *Client) DeleteGroup(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/groups", id), nil, nil, nil)
}

func (c *Client) ListMembers(ctx context.Context, groupID int64) ([]state.Membership, error) {
	var members []state.Membership
	err := c.do(ctx, http.MethodGet, idPath("/groups", groupID, "/members"), nil, nil, &members)
	return members, err
}

func (c *Client) ListMemberships(ctx context.Context, q state.MembershipQuery) ([]state.Membership, error) {
	var members []state.Membership
	err := c.do(ctx, http.MethodGet, "/memberships", membershipQuery(q), nil, &members)
	return members, err
}

// SetMemberRole changes a member's role; the caller must be a group admin
func (c *Client) SetMemberRole(ctx context.Context, groupID int64, userID string, role state.Role) (state.Membership, error) {
	var m state.Membership
	body := struct {
		Role state.Role `json:"role"`
	}{role}
	err := c.do(ctx, http.MethodPut, idPath("/groups", groupID, "/members/", url.PathEscape(userID)), nil, body, &m)
	return m, err
}

// RemoveMember removes another member; the caller must be a group admin
func (c *Client) RemoveMember(ctx context.Context, groupID int64, userID string) error {
	return c.do(ctx, http.MethodDelete, idPath("/groups", groupID, "/members/", url.PathEscape(userID)), nil, nil, nil)
}

func (c *Client) JoinPublicGroup(ctx context.Context, id int64) (state.Group, error) {
	var g state.Group
	err := c.do(ctx, http.MethodPost, idPath("/groups", id, "/join"), nil, nil, &g)
	return g, err
}

func (c *Client) LeaveGroup(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, idPath("/groups", id, "/leave"), nil, nil, nil)
}

type inviteToken struct {
	InviteToken string `json:"invite_token"`
}

func (c *Client) JoinGroupByToken(ctx context.Context, token string) (int64, error) {
	var out struct {
		GroupID int64 `json:"group_id"`
	}
	err := c.do(ctx, http.MethodPost, "/rpc/join_group_by_token", nil, inviteToken{token}, &out)
	return out.GroupID, err
}

func (c *Client) GetGroupByInviteToken(ctx context.Context, token string) (state.InvitePreview, error) {
	var p state.InvitePreview
	err := c.do(ctx, http.MethodPost, "/rpc/get_group_by_invite_token", nil, inviteToken{token}, &p)
	return p, err
}

// Shares

func (c *Client) ListShares(ctx context.Context, q state.ShareQuery) ([]state.Share, error) {
	var rows []state.Share
	err := c.do(ctx, http.MethodGet, "/shares", shareQuery(q), nil, &rows)
	return rows, err
}

func (c *Client) AddShares(ctx context.Context, shares []state.Share) error {
	body := struct {
		Shares []state.Share `json:"shares"`
	}{shares}
	return c.do(ctx, http.MethodPost, "/shares", nil, body, nil)
}

func (c *Client) RemoveShare(ctx context.Context, s state.Share) error {
	q := url.Values{}
	setIDs(q, "thing_id", []int64{s.ThingID})
	setIDs(q, "group_id", []int64{s.GroupID})
	return c.do(ctx, http.MethodDelete, "/shares", q, nil, nil)
}

func (c *Client) ReplaceShares(ctx context.Context, thingID int64, groupIDs []int64) error {
	if groupIDs == nil {
		groupIDs = []int64{}
	}
	body := struct {
		GroupIDs []int64 `json:"group_ids"`
	}{groupIDs}
	return c.do(ctx, http.MethodPut, idPath("/shares/things", thingID), nil, body, nil)
}

// Profiles

func (c *Client) GetProfile(ctx context.Context, id string) (state.Profile, error) {
	var p state.Profile
	err := c.do(ctx, http.MethodGet, "/profiles/"+url.PathEscape(id), nil, nil, &p)
	return p, err
}

func (c *Client) ListProfiles(ctx context.Context, ids []string) ([]state.Profile, error) {
	q := url.Values{}
	setStrings(q, "id", ids)
	var profiles []state.Profile
	err := c.do(ctx, http.MethodGet, "/profiles", q, nil, &profiles)
	return profiles, err
}

// SaveProfile updates the caller's own profile
func (c *Client) SaveProfile(ctx context.Context, in state.ProfileInput) (state.Profile, error) {
	var p state.Profile
	err := c.do(ctx, http.MethodPut, "/profiles/me", nil, in, &p)
	return p, err
}

// Admin

func (c *Client) AdminListGroups(ctx context.Context) ([]state.Group, error) {
	var groups []state.Group
	err := c.do(ctx, http.MethodGet, "/admin/groups", nil, nil, &groups)
	return groups, err
}

func (c *Client) AdminListUsers(ctx context.Context) ([]state.Profile, error) {
	var profiles []state.Profile
	err := c.do(ctx, http.MethodGet, "/admin/users", nil, nil, &profiles)
	return profiles, err
}

func (c *Client) AdminListItems(ctx context.Context, q state.ItemQuery) ([]state.Item, error) {
	var items []state.Item
	err := c.do(ctx, http.MethodGet, "/admin/items", itemQuery(q), nil, &items)
	return items, err
}

func (c *Client) AdminListMemberships(ctx context.Context, q state.MembershipQuery) ([]state.Membership, error) {
	var members []state.Membership
	err := c.do(ctx, http.MethodGet, "/admin/memberships", membershipQuery(q), nil, &members)
	return members, err
}

func (c *Client) AdminListShares(ctx context.Context, q state.ShareQuery) ([]state.Share, error) {
	var rows []state.Share
	err := c.do(ctx, http.MethodGet, "/admin/shares", shareQuery(q), nil, &rows)
	return rows, err
}

func (c *Client) AdminDeleteGroup(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/admin/groups", id), nil, nil, nil)
}
