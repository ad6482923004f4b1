package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opsdesk/opsdesk-backend/internal/auth"
	"github.com/opsdesk/opsdesk-backend/internal/core/domain"
	apperrors "github.com/opsdesk/opsdesk-backend/internal/core/errors"
	"github.com/opsdesk/opsdesk-backend/internal/core/ports"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// AuthHandler handles registration and login. Token issuance lives here, in
// the adapter: the core auth service deals in users, not credentials.
type AuthHandler struct {
	authService  ports.AuthService
	tokenManager *auth.TokenManager
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService ports.AuthService,
	tokenManager *auth.TokenManager,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		tokenManager: tokenManager,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "auth"),
	}
}

// RegisterRoutes sets up the routing for auth endpoints.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
}

// --- Request/Response DTOs ---

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func toUserDTO(user *domain.User) UserDTO {
	return UserDTO{
		ID:       user.ID.String(),
		Username: user.Username,
		Role:     string(user.Role),
	}
}

// --- Handlers ---

// HandleRegister handles POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), domain.UserRegistrationParams{
		Username: req.Username,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	token, err := h.tokenManager.Issue(user.ID, user.Role)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewInternalError(err))
		return
	}

	h.logger.Info("user registered",
		"user_id", user.ID,
		"role", user.Role,
	)

	WriteCreated(w, TokenResponse{
		Token: token,
		User:  toUserDTO(user),
	})
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	user, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	token, err := h.tokenManager.Issue(user.ID, user.Role)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewInternalError(err))
		return
	}

	h.logger.Info("user logged in", "user_id", user.ID)

	WriteJSON(w, http.StatusOK, TokenResponse{
		Token: token,
		User:  toUserDTO(user),
	})
}

// decodeJSON decodes a request body into dst with a size cap and strict
// field checking.
func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return apperrors.NewBadRequestError(err, "Invalid request body")
	}

	// A second decode must hit EOF, otherwise there is trailing data.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return apperrors.NewBadRequestError(apperrors.ErrBadRequest, "Request body must contain a single JSON object")
	}

	return nil
}
