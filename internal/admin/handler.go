// Package admin serves the unfiltered platform-wide reads behind the admin role.
package admin

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/thinglibrary/internal/group"
	"github.com/fkhayef/thinglibrary/internal/item"
	"github.com/fkhayef/thinglibrary/internal/profile"
	"github.com/fkhayef/thinglibrary/internal/share"
	"github.com/fkhayef/thinglibrary/pkg/request"
	"github.com/fkhayef/thinglibrary/pkg/response"
)

// Groups is the group access admin routes need
type Groups interface {
	ListAll(ctx context.Context) ([]*group.Group, error)
	AllMemberships(ctx context.Context, f group.MembershipFilter) ([]*group.GroupMember, error)
	DeleteAny(ctx context.Context, id int64) error
}

// Items is the item access admin routes need
type Items interface {
	ListAll(ctx context.Context, f item.Filter) ([]*item.Item, error)
}

// Profiles is the profile access admin routes need
type Profiles interface {
	List(ctx context.Context, ids []string) ([]*profile.Profile, error)
}

// Shares is the share access admin routes need
type Shares interface {
	ListAll(ctx context.Context, f share.Filter) ([]share.Share, error)
}

// Handler handles admin HTTP requests
type Handler struct {
	groups   Groups
	items    Items
	profiles Profiles
	shares   Shares
	origin   string
}

// NewHandler creates a new admin handler
func NewHandler(groups Groups, items Items, profiles Profiles, shares Shares, origin string) *Handler {
	return &Handler{groups: groups, items: items, profiles: profiles, shares: shares, origin: origin}
}

// Routes returns the router for admin endpoints. Callers mount it behind
// middleware.RequireAdmin.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/groups", h.Groups)
	r.Delete("/groups/{id}", h.DeleteGroup)
	r.Get("/users", h.Users)
	r.Get("/items", h.Items)
	r.Get("/memberships", h.Memberships)
	r.Get("/shares", h.Shares)

	return r
}

// Groups handles GET /admin/groups
// @Summary      List all groups
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.APIResponse{data=[]group.GroupResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /admin/groups [get]
func (h *Handler) Groups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.ListAll(r.Context())
	if err != nil {
		response.InternalError(w, "Failed to list groups")
		return
	}

	response.List(w, group.GroupResponses(groups, h.origin, true))
}

// DeleteGroup handles DELETE /admin/groups/{id}
// @Summary      Delete any group
// @Tags         admin
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Success      204
// @Failure      404 {object} response.APIResponse
// @Router       /admin/groups/{id} [delete]
func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, err := request.PathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	if err := h.groups.DeleteAny(r.Context(), id); err != nil {
		if errors.Is(err, group.ErrGroupNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to delete group")
		return
	}

	response.NoContent(w)
}

// Users handles GET /admin/users
// @Summary      List all user profiles
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.APIResponse{data=[]profile.ProfileResponse}
// @Router       /admin/users [get]
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profiles.List(r.Context(), nil)
	if err != nil {
		response.InternalError(w, "Failed to list users")
		return
	}

	response.List(w, profile.ToResponses(profiles))
}

// Items handles GET /admin/items
// @Summary      List all items
// @Description  Every item regardless of visibility, ordered by name unless order is given
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        type query string false "thing or request"
// @Param        user_id query string false "Comma separated owner ids"
// @Success      200 {object} response.APIResponse{data=[]item.ItemResponse}
// @Router       /admin/items [get]
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	f, ok := item.ParseFilter(w, r)
	if !ok {
		return
	}
	if f.Order == "" {
		f.Order = item.OrderName
	}

	items, err := h.items.ListAll(r.Context(), f)
	if err != nil {
		response.InternalError(w, "Failed to list items")
		return
	}

	response.List(w, item.ToResponses(items))
}

// Memberships handles GET /admin/memberships
// @Summary      List memberships without visibility restriction
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        group_id query string false "Comma separated group ids"
// @Param        user_id query string false "Comma separated user ids"
// @Success      200 {object} response.APIResponse{data=[]group.MemberResponse}
// @Router       /admin/memberships [get]
func (h *Handler) Memberships(w http.ResponseWriter, r *http.Request) {
	f, ok := group.ParseMembershipFilter(w, r)
	if !ok {
		return
	}

	members, err := h.groups.AllMemberships(r.Context(), f)
	if err != nil {
		response.InternalError(w, "Failed to list memberships")
		return
	}

	response.List(w, group.MemberResponses(members))
}

// Shares handles GET /admin/shares
// @Summary      List shares without visibility restriction
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        thing_id query string false "Comma separated item ids"
// @Param        group_id query string false "Comma separated group ids"
// @Success      200 {object} response.APIResponse{data=[]share.ShareRow}
// @Router       /admin/shares [get]
func (h *Handler) Shares(w http.ResponseWriter, r *http.Request) {
	f, ok := share.ParseFilter(w, r)
	if !ok {
		return
	}

	shares, err := h.shares.ListAll(r.Context(), f)
	if err != nil {
		response.InternalError(w, "Failed to list shares")
		return
	}

	response.List(w, share.ToRows(shares))
}
