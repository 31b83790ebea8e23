package share

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/thinglibrary/pkg/middleware"
	"github.com/fkhayef/thinglibrary/pkg/request"
	"github.com/fkhayef/thinglibrary/pkg/response"
)

// Handler handles HTTP requests for shares
type Handler struct {
	service *Service
}

// NewHandler creates a new share handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for share endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/", h.Delete)
	r.Put("/things/{id}", h.Replace)
	r.Delete("/things/{id}", h.DeleteForThing)

	return r
}

// List handles GET /shares
// @Summary      List shares
// @Description  Rows of items the caller owns or of groups the caller belongs to
// @Tags         shares
// @Produce      json
// @Security     BearerAuth
// @Param        thing_id query string false "Comma separated item ids"
// @Param        group_id query string false "Comma separated group ids"
// @Success      200 {object} response.APIResponse{data=[]ShareRow}
// @Router       /shares [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	f, ok := ParseFilter(w, r)
	if !ok {
		return
	}

	shares, err := h.service.List(r.Context(), userID, f)
	if err != nil {
		response.InternalError(w, "Failed to list shares")
		return
	}

	response.List(w, ToRows(shares))
}

// Create handles POST /shares
// @Summary      Share items with groups
// @Description  All or nothing; a row that already exists fails the batch with 409
// @Tags         shares
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateSharesRequest true "Rows to insert"
// @Success      201 {object} response.APIResponse{data=[]ShareRow}
// @Failure      403 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /shares [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req CreateSharesRequest
	if err := response.Decode(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	shares, err := h.service.Add(r.Context(), userID, fromRows(req.Shares))
	if err != nil {
		writeError(w, err, "Failed to share items")
		return
	}

	response.JSON(w, http.StatusCreated, ToRows(shares))
}

// Delete handles DELETE /shares?thing_id=&group_id=
// @Summary      Unshare an item from a group
// @Tags         shares
// @Security     BearerAuth
// @Param        thing_id query int true "Item ID"
// @Param        group_id query int true "Group ID"
// @Success      204
// @Failure      404 {object} response.APIResponse
// @Router       /shares [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	thingIDs, err := request.IDList(r, "thing_id")
	if err != nil || len(thingIDs) != 1 {
		response.BadRequest(w, "Exactly one thing_id is required")
		return
	}
	groupIDs, err := request.IDList(r, "group_id")
	if err != nil || len(groupIDs) != 1 {
		response.BadRequest(w, "Exactly one group_id is required")
		return
	}

	if err := h.service.Remove(r.Context(), userID, thingIDs[0], groupIDs[0]); err != nil {
		writeError(w, err, "Failed to unshare item")
		return
	}

	response.NoContent(w)
}

// Replace handles PUT /shares/things/{id}
// @Summary      Set the groups an item is shared with
// @Description  Applies the minimal difference to reach exactly the given set
// @Tags         shares
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Item ID"
// @Param        request body ReplaceSharesRequest true "Desired group ids"
// @Success      200 {object} response.APIResponse{data=[]ShareRow}
// @Failure      403 {object} response.APIResponse
// @Router       /shares/things/{id} [put]
func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	thingID, err := request.PathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid item ID")
		return
	}

	var req ReplaceSharesRequest
	if err := response.Decode(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	shares, err := h.service.Replace(r.Context(), userID, thingID, req.GroupIDs)
	if err != nil {
		writeError(w, err, "Failed to update sharing")
		return
	}

	response.List(w, ToRows(shares))
}

// DeleteForThing handles DELETE /shares/things/{id}
func (h *Handler) DeleteForThing(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	thingID, err := request.PathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid item ID")
		return
	}

	if err := h.service.RemoveAll(r.Context(), userID, thingID); err != nil {
		writeError(w, err, "Failed to unshare item")
		return
	}

	response.NoContent(w)
}

// ParseFilter reads thing_id and group_id lists, writing a 400 on failure
func ParseFilter(w http.ResponseWriter, r *http.Request) (Filter, bool) {
	thingIDs, err := request.IDList(r, "thing_id")
	if err != nil {
		response.BadRequest(w, err.Error())
		return Filter{}, false
	}
	groupIDs, err := request.IDList(r, "group_id")
	if err != nil {
		response.BadRequest(w, err.Error())
		return Filter{}, false
	}
	return Filter{ThingIDs: thingIDs, GroupIDs: groupIDs}, true
}

func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrItemNotFound), errors.Is(err, ErrShareNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotOwner), errors.Is(err, ErrNotMember):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrAlreadyShared):
		response.Conflict(w, err.Error())
	case errors.Is(err, ErrEmptyBatch):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}
