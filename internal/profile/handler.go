package profile

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/thinglibrary/internal/geo"
	"github.com/fkhayef/thinglibrary/pkg/middleware"
	"github.com/fkhayef/thinglibrary/pkg/request"
	"github.com/fkhayef/thinglibrary/pkg/response"
)

// Handler handles HTTP requests for profiles
type Handler struct {
	service *Service
}

// NewHandler creates a new profile handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for profile endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/me", h.Me)
	r.Put("/me", h.UpdateMe)
	r.Get("/{id}", h.GetByID)

	return r
}

// List handles GET /profiles
// @Summary      List profiles
// @Description  Profiles ordered by name, optionally restricted to the given ids
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Param        id query string false "Comma separated user ids"
// @Success      200 {object} response.APIResponse{data=[]ProfileResponse}
// @Router       /profiles [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.List(r.Context(), request.StringList(r, "id"))
	if err != nil {
		response.InternalError(w, "Failed to list profiles")
		return
	}

	response.List(w, ToResponses(profiles))
}

// Me handles GET /profiles/me
// @Summary      Get own profile
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.APIResponse{data=ProfileResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /profiles/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	h.get(w, r, userID)
}

// GetByID handles GET /profiles/{id}
// @Summary      Get profile by user ID
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Success      200 {object} response.APIResponse{data=ProfileResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /profiles/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, chi.URLParam(r, "id"))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get profile")
		return
	}

	response.JSON(w, http.StatusOK, p.ToResponse())
}

// UpdateMe handles PUT /profiles/me
// @Summary      Save own profile
// @Description  Creates the profile on first save. The role cannot be set.
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateProfileRequest true "Profile fields"
// @Success      200 {object} response.APIResponse{data=ProfileResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /profiles/me [put]
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req UpdateProfileRequest
	if err := response.Decode(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	p, err := h.service.Upsert(r.Context(), userID, &req)
	if err != nil {
		if geo.IsError(err) {
			response.BadRequest(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to save profile")
		return
	}

	response.JSON(w, http.StatusOK, p.ToResponse())
}
