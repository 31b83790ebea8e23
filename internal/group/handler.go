package group

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/thinglibrary/internal/geo"
	"github.com/fkhayef/thinglibrary/pkg/middleware"
	"github.com/fkhayef/thinglibrary/pkg/request"
	"github.com/fkhayef/thinglibrary/pkg/response"
)

// Handler handles HTTP requests for group operations
type Handler struct {
	service *Service
}

// NewHandler creates a new group handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for group endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.ListMine)
	r.Get("/public", h.ListPublic)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/join", h.JoinPublic)
	r.Post("/{id}/leave", h.Leave)

	// Member management
	r.Get("/{id}/members", h.GetMembers)
	r.Put("/{id}/members/{userId}", h.UpdateMember)
	r.Delete("/{id}/members/{userId}", h.RemoveMember)

	return r
}

// MembershipRoutes returns the router for the flat membership query
func (h *Handler) MembershipRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Memberships)
	return r
}

// RPCRoutes returns the invite token procedures
func (h *Handler) RPCRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/join_group_by_token", h.JoinByToken)
	r.Post("/get_group_by_invite_token", h.PreviewByToken)
	return r
}

// Create handles POST /groups
// @Summary      Create a new group
// @Description  Create a new group and add creator as admin
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateGroupRequest true "Group creation request"
// @Success      201 {object} response.APIResponse{data=GroupResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /groups [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	creatorID, _ := middleware.GetUserID(r.Context())

	var req CreateGroupRequest
	if err := response.Decode(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	group, err := h.service.Create(r.Context(), creatorID, &req)
	if err != nil {
		writeError(w, err, "Failed to create group")
		return
	}

	response.JSON(w, http.StatusCreated, group.ToResponse(h.service.Origin(), false))
}

// GetByID handles GET /groups/{id}
// @Summary      Get group by ID
// @Description  Members see the invite token; non-members only see public groups
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=GroupResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	id, err := request.PathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	group, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, err, "Failed to get group")
		return
	}

	response.JSON(w, http.StatusOK, group.ToResponse(h.service.Origin(), false))
}

// ListMine handles GET /groups
// @Summary      List my groups
// @Description  Groups the caller belongs to, with the caller's role
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.APIResponse{data=[]GroupResponse}
// @Router       /groups [get]
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	groups, err := h.service.ListMine(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to list groups")
		return
	}

	response.List(w, GroupResponses(groups, h.service.Origin(), false))
}

// ListPublic handles GET /groups/public
// @Summary      List public groups
// @Description  Public groups the caller has not joined
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.APIResponse{data=[]GroupResponse}
// @Router       /groups/public [get]
func (h *Handler) ListPublic(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	groups, err := h.service.ListPublic(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to list public groups")
		return
	}

	response.List(w, GroupResponses(groups, h.service.Origin(), false))
}

// Update handles PUT /groups/{id}
// @Summary      Update a group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Param        request body UpdateGroupRequest true "Fields to change"
// @Success      200 {object} response.APIResponse{data=GroupResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /groups/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	id, err := request.PathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	var req UpdateGroupRequest
	if err := response.Decode(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	group, err := h.service.Update(r.Context(), userID, id, &req)
	if err != nil {
		writeError(w, err, "Failed to update group")
		return
	}

	response.JSON(w, http.StatusOK, group.ToResponse(h.service.Origin(), false))
}

// Delete handles DELETE /groups/{id}
// @Summary      Delete a group
// @Tags         groups
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Success      204
// @Failure      403 {object} response.APIResponse
// @Router       /groups/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	id, err := request.PathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		writeError(w, err, "Failed to delete group")
		return
	}

	response.NoContent(w)
}

// JoinPublic handles POST /groups/{id}/join
func (h *Handler) JoinPublic(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	id, err := request.PathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	group, err := h.service.JoinPublic(r.Context(), userID, id)
	if err != nil {
		writeError(w, err, "Failed to join group")
		return
	}

	response.JSON(w, http.StatusOK, group.ToResponse(h.service.Origin(), false))
}

// Leave handles POST /groups/{id}/leave
// @Summary      Leave a group
// @Tags         groups
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Success      204
// @Failure      409 {object} response.APIResponse
// @Router       /groups/{id}/leave [post]
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	id, err := request.PathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	if err := h.service.Leave(r.Context(), userID, id); err != nil {
		writeError(w, err, "Failed to leave group")
		return
	}

	response.NoContent(w)
}

// GetMembers handles GET /groups/{id}/members
// @Summary      List group members
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=[]MemberResponse}
// @Router       /groups/{id}/members [get]
func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	groupID, err := request.PathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	members, err := h.service.GetMembers(r.Context(), userID, groupID)
	if err != nil {
		writeError(w, err, "Failed to get members")
		return
	}

	response.List(w, MemberResponses(members))
}

// UpdateMember handles PUT /groups/{id}/members/{userId}
// @Summary      Change a member's role
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Param        userId path string true "User ID"
// @Param        request body UpdateMemberRequest true "New role"
// @Success      200 {object} response.APIResponse{data=MemberResponse}
// @Failure      409 {object} response.APIResponse
// @Router       /groups/{id}/members/{userId} [put]
func (h *Handler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetUserID(r.Context())

	groupID, err := request.PathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	var req UpdateMemberRequest
	if err := response.Decode(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	member, err := h.service.UpdateMemberRole(r.Context(), actorID, groupID, chi.URLParam(r, "userId"), req.Role)
	if err != nil {
		writeError(w, err, "Failed to update member")
		return
	}

	response.JSON(w, http.StatusOK, member.ToResponse())
}

// RemoveMember handles DELETE /groups/{id}/members/{userId}
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetUserID(r.Context())

	groupID, err := request.PathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	if err := h.service.RemoveMember(r.Context(), actorID, groupID, chi.URLParam(r, "userId")); err != nil {
		writeError(w, err, "Failed to remove member")
		return
	}

	response.NoContent(w)
}

// Memberships handles GET /memberships
// @Summary      Query membership rows
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        group_id query string false "Comma separated group ids"
// @Param        user_id query string false "Comma separated user ids"
// @Success      200 {object} response.APIResponse{data=[]MemberResponse}
// @Router       /memberships [get]
func (h *Handler) Memberships(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	f, ok := ParseMembershipFilter(w, r)
	if !ok {
		return
	}

	members, err := h.service.Memberships(r.Context(), userID, f)
	if err != nil {
		response.InternalError(w, "Failed to list memberships")
		return
	}

	response.List(w, MemberResponses(members))
}

// JoinByToken handles POST /rpc/join_group_by_token
// @Summary      Join a group with an invite token
// @Description  Idempotent: joining twice returns the same group id without a duplicate membership
// @Tags         rpc
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body InviteTokenRequest true "Invite token"
// @Success      200 {object} response.APIResponse{data=JoinResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /rpc/join_group_by_token [post]
func (h *Handler) JoinByToken(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req InviteTokenRequest
	if err := response.Decode(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	groupID, err := h.service.JoinByToken(r.Context(), userID, req.InviteToken)
	if err != nil {
		writeError(w, err, "Failed to join group")
		return
	}

	response.JSON(w, http.StatusOK, JoinResponse{GroupID: groupID})
}

// PreviewByToken handles POST /rpc/get_group_by_invite_token
// @Summary      Look up the group behind an invite token
// @Tags         rpc
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body InviteTokenRequest true "Invite token"
// @Success      200 {object} response.APIResponse{data=InvitePreviewResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /rpc/get_group_by_invite_token [post]
func (h *Handler) PreviewByToken(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req InviteTokenRequest
	if err := response.Decode(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	preview, err := h.service.PreviewByToken(r.Context(), userID, req.InviteToken)
	if err != nil {
		writeError(w, err, "Failed to look up invite")
		return
	}

	response.JSON(w, http.StatusOK, preview.ToResponse())
}

// ParseMembershipFilter reads group_id and user_id lists, writing a 400 on failure
func ParseMembershipFilter(w http.ResponseWriter, r *http.Request) (MembershipFilter, bool) {
	groupIDs, err := request.IDList(r, "group_id")
	if err != nil {
		response.BadRequest(w, err.Error())
		return MembershipFilter{}, false
	}
	return MembershipFilter{
		GroupIDs: groupIDs,
		UserIDs:  request.StringList(r, "user_id"),
	}, true
}

func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrGroupNotFound), errors.Is(err, ErrMemberNotFound), errors.Is(err, ErrInviteNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotAuthorized), errors.Is(err, ErrNotPublic):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrLastAdmin), errors.Is(err, ErrAlreadyMember):
		response.Conflict(w, err.Error())
	case errors.Is(err, ErrNameRequired), errors.Is(err, ErrLocationRequired), errors.Is(err, ErrInvalidRole), geo.IsError(err):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}
