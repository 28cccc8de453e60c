package http

import (
	"net/http"
	"strings"

	"github.com/atinyakov/CoverCatalog/internal/middleware"
	"github.com/atinyakov/CoverCatalog/internal/models"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configures the optional parts of the router.
type RouterOptions struct {
	// CORSOrigins lists allowed origins; empty disables CORS handling.
	CORSOrigins []string
	// StaticDir is served at / when non-empty.
	StaticDir string
}

// NewRouter constructs and returns an HTTP handler that serves the catalog
// API and, optionally, the frontend.
//
// Routes:
//
//	GET    /api/health          → Health (public)
//	POST   /api/auth/login      → authHandler.Login (public)
//	POST   /api/auth/logout     → authHandler.Logout (any role)
//	GET    /api/products        → productHandler.List (any role)
//	GET    /api/products/{id}   → productHandler.Get (any role)
//	POST   /api/products        → productHandler.Create (admin)
//	PUT    /api/products/{id}   → productHandler.Update (admin)
//	DELETE /api/products/{id}   → productHandler.Delete (admin)
//
// Middleware chain (applied in order):
//  1. RequestID, RealIP, Recoverer      — chi built-ins
//  2. WithRequestLogging(logger)        — logs every request
//  3. cors.Handler                      — when origins are configured
//  4. requireJSON on /api
//  5. Authorize                         — per route group
func NewRouter(
	authHandler *AuthHandler,
	productHandler *ProductHandler,
	logger *zap.Logger,
	opts RouterOptions,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(logger))

	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	authenticated := middleware.Authorize(authHandler.AuthService, "", logger)
	adminOnly := middleware.Authorize(authHandler.AuthService, models.RoleAdmin, logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, msgRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	})

	r.Route("/api", func(r chi.Router) {
		// Requests with a body must be JSON
		r.Use(requireJSON)

		// Public endpoints
		r.Get("/health", Health)
		r.Post("/auth/login", authHandler.Login)

		// Any authenticated role
		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/products", productHandler.List)
			r.Get("/products/{id}", productHandler.Get)
		})

		// Admin only
		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/products", productHandler.Create)
			r.Put("/products/{id}", productHandler.Update)
			r.Delete("/products/{id}", productHandler.Delete)
		})
	})

	if opts.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
	}

	return r
}

// requireJSON rejects requests that carry a body without an
// application/json Content-Type.
func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}
		ct, _, _ := strings.Cut(r.Header.Get("Content-Type"), ";")
		if !strings.EqualFold(strings.TrimSpace(ct), "application/json") {
			writeError(w, http.StatusBadRequest, msgBadJSON)
			return
		}
		next.ServeHTTP(w, r)
	})
}
