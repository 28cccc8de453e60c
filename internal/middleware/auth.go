// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/atinyakov/CoverCatalog/internal/models"
	"go.uber.org/zap"
)

type ctxKey string

const identityKey ctxKey = "identity"

const (
	msgAuthRequired  = "Authentication required"
	msgAdminRequired = "Admin access required"
)

// TokenVerifier validates a raw bearer token.
type TokenVerifier interface {
	Verify(raw string) (models.Identity, error)
}

// Authorize returns a middleware that requires a valid, unrevoked bearer
// token. If required is non-empty the token's role must equal it.
//
// Missing, malformed, expired and revoked tokens all produce the same 401
// response; the underlying reason is only logged.
// A token with the wrong role produces 403.
// On success the verified models.Identity is stored in the request context.
func Authorize(verifier TokenVerifier, required models.Role, log *zap.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := BearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, msgAuthRequired)
				return
			}

			id, err := verifier.Verify(raw)
			if err != nil {
				log.Debug("token rejected",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, msgAuthRequired)
				return
			}

			if required != "" && id.Role != required {
				log.Info("insufficient role",
					zap.String("principal", id.Principal),
					zap.String("role", string(id.Role)),
					zap.String("required", string(required)),
					zap.String("path", r.URL.Path),
				)
				writeError(w, http.StatusForbidden, msgAdminRequired)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// IdentityFromContext returns the identity stored by Authorize.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(models.Identity)
	return id, ok
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
