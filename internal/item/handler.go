package item

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/thinglibrary/internal/geo"
	"github.com/fkhayef/thinglibrary/pkg/middleware"
	"github.com/fkhayef/thinglibrary/pkg/request"
	"github.com/fkhayef/thinglibrary/pkg/response"
)

// Handler handles HTTP requests for item operations
type Handler struct {
	service *Service
}

// NewHandler creates a new item handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for item endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

// Create handles POST /items
// @Summary      Create an item
// @Description  Create a thing or a request owned by the caller
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateItemRequest true "Item"
// @Success      201 {object} response.APIResponse{data=ItemResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /items [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req CreateItemRequest
	if err := response.Decode(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	it, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		writeError(w, err, "Failed to create item")
		return
	}

	response.JSON(w, http.StatusCreated, it.ToResponse())
}

// List handles GET /items
// @Summary      List visible items
// @Description  Items the caller owns, public items and items shared with the caller's groups
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        type query string false "thing or request"
// @Param        user_id query string false "Comma separated owner ids"
// @Param        ids query string false "Comma separated item ids"
// @Param        order query string false "newest (default) or name"
// @Success      200 {object} response.APIResponse{data=[]ItemResponse}
// @Router       /items [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	f, ok := ParseFilter(w, r)
	if !ok {
		return
	}

	items, err := h.service.List(r.Context(), userID, f)
	if err != nil {
		writeError(w, err, "Failed to list items")
		return
	}

	response.List(w, ToResponses(items))
}

// Get handles GET /items/{id}
// @Summary      Get item by ID
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Item ID"
// @Success      200 {object} response.APIResponse{data=ItemResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /items/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	id, err := request.PathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid item ID")
		return
	}

	it, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, err, "Failed to get item")
		return
	}

	response.JSON(w, http.StatusOK, it.ToResponse())
}

// Update handles PUT /items/{id}
// @Summary      Update an item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Item ID"
// @Param        request body UpdateItemRequest true "Fields to change"
// @Success      200 {object} response.APIResponse{data=ItemResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /items/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	id, err := request.PathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid item ID")
		return
	}

	var req UpdateItemRequest
	if err := response.Decode(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	it, err := h.service.Update(r.Context(), userID, id, &req)
	if err != nil {
		writeError(w, err, "Failed to update item")
		return
	}

	response.JSON(w, http.StatusOK, it.ToResponse())
}

// Delete handles DELETE /items/{id}
// @Summary      Delete an item and its shares
// @Tags         items
// @Security     BearerAuth
// @Param        id path int true "Item ID"
// @Success      204
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /items/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	id, err := request.PathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid item ID")
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		writeError(w, err, "Failed to delete item")
		return
	}

	response.NoContent(w)
}

// ParseFilter reads the list filter from the query string, writing a 400 on failure
func ParseFilter(w http.ResponseWriter, r *http.Request) (Filter, bool) {
	q := r.URL.Query()
	f := Filter{
		Type:    Type(q.Get("type")),
		UserIDs: request.StringList(r, "user_id"),
		Order:   Order(q.Get("order")),
	}
	if f.Type != "" && !f.Type.Valid() {
		response.BadRequest(w, ErrInvalidType.Error())
		return f, false
	}

	ids, err := request.IDList(r, "ids")
	if err != nil {
		response.BadRequest(w, err.Error())
		return f, false
	}
	f.IDs = ids
	return f, true
}

func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrItemNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotOwner):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrNameRequired), errors.Is(err, ErrInvalidType), geo.IsError(err):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}
