// Package http provides the HTTP handlers and routing of the catalog API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/atinyakov/CoverCatalog/internal/middleware"
	"github.com/atinyakov/CoverCatalog/internal/models"
	"github.com/atinyakov/CoverCatalog/internal/service"
	"go.uber.org/zap"
)

// AuthService defines the authentication operations required by the HTTP
// handlers.
type AuthService interface {
	// Login verifies the credentials and issues a token.
	Login(ctx context.Context, principal, secret string) (service.Session, error)
	// Verify validates a raw bearer token.
	Verify(raw string) (models.Identity, error)
	// Logout revokes the token of the given identity.
	Logout(ctx context.Context, id models.Identity) error
}

// AuthHandler handles HTTP requests for login and logout.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	// Logger receives failures; nil disables logging.
	Logger *zap.Logger
}

// LoginRequest represents the JSON payload of a login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginUser describes the authenticated principal in a login response.
type LoginUser struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        LoginUser `json:"user"`
}

// Login handles POST /api/auth/login.
// It expects a JSON body with non-empty "username" and "password" fields.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadJSON)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, msgMissingLogin)
		return
	}

	sess, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}

	h.logger().Info("login", zap.String("principal", sess.Principal), zap.String("role", string(sess.Role)))
	writeJSON(w, http.StatusOK, LoginResponse{
		AccessToken: sess.Token,
		ExpiresAt:   sess.ExpiresAt,
		User:        LoginUser{Username: sess.Principal, Role: sess.Role},
	})
}

// Logout handles POST /api/auth/logout. It must run behind
// middleware.Authorize, which rejects tokens that are already invalid.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if err := h.AuthService.Logout(r.Context(), id); err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}

	h.logger().Info("logout", zap.String("principal", id.Principal), zap.String("token_id", id.TokenID))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (h *AuthHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
