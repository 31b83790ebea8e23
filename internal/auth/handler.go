package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/thinglibrary/pkg/middleware"
	"github.com/fkhayef/thinglibrary/pkg/response"
)

// Handler handles HTTP requests for authentication
type Handler struct {
	service *Service
}

// NewHandler creates a new auth handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for auth endpoints
func (h *Handler) Routes(requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/signup", h.SignUp)
	r.Post("/signin", h.SignIn)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/session", h.Session)
		r.Post("/signout", h.SignOut)
	})

	return r
}

// SignUp handles POST /auth/signup
// @Summary      Sign up
// @Description  Create an account and return a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body CredentialsRequest true "Credentials"
// @Success      201 {object} response.APIResponse{data=SessionResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /auth/signup [post]
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := response.Decode(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	session, err := h.service.SignUp(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrWeakPassword):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrEmailExists):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to sign up")
		}
		return
	}

	response.JSON(w, http.StatusCreated, session)
}

// SignIn handles POST /auth/signin
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body CredentialsRequest true "Credentials"
// @Success      200 {object} response.APIResponse{data=SessionResponse}
// @Failure      401 {object} response.APIResponse
// @Router       /auth/signin [post]
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := response.Decode(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	session, err := h.service.SignIn(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to sign in")
		return
	}

	response.JSON(w, http.StatusOK, session)
}

// Session handles GET /auth/session
// @Summary      Current session user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.APIResponse{data=UserResponse}
// @Failure      401 {object} response.APIResponse
// @Router       /auth/session [get]
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	user, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.Unauthorized(w, "Session user no longer exists")
			return
		}
		response.InternalError(w, "Failed to load session")
		return
	}

	response.JSON(w, http.StatusOK, user.ToResponse())
}

// SignOut handles POST /auth/signout. Tokens are stateless; the client drops its copy.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	response.NoContent(w)
}
