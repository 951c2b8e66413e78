// Package middleware provides HTTP middleware for the platform API.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/afl-fantasy/platform/internal/app/services/users"
	"github.com/afl-fantasy/platform/internal/errors"
	"github.com/afl-fantasy/platform/internal/logging"
)

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	VerifyToken(token string) (*users.Claims, error)
}

// AuthMiddleware provides JWT authentication.
type AuthMiddleware struct {
	verifier     TokenVerifier
	logger       *logging.Logger
	skipPaths    map[string]bool
	skipPrefixes []string
}

// NewAuthMiddleware creates an authentication middleware. Paths ending in
// "*" are treated as prefixes.
func NewAuthMiddleware(verifier TokenVerifier, logger *logging.Logger, skipPaths []string) *AuthMiddleware {
	skip := make(map[string]bool)
	var prefixes []string
	for _, path := range skipPaths {
		if strings.HasSuffix(path, "*") {
			prefixes = append(prefixes, strings.TrimSuffix(path, "*"))
			continue
		}
		skip[path] = true
	}

	return &AuthMiddleware{
		verifier:     verifier,
		logger:       logger,
		skipPaths:    skip,
		skipPrefixes: prefixes,
	}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skip(r.Method, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.respondError(w, r, errors.Unauthorized("missing Authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.respondError(w, r, errors.Unauthorized("invalid Authorization header format"))
			return
		}

		claims, err := m.verifier.VerifyToken(parts[1])
		if err != nil {
			m.logger.WithContext(r.Context()).WithError(err).Warn("token validation failed")
			m.respondError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), logging.UserIDKey, claims.Subject)
		if claims.Role != "" {
			ctx = context.WithValue(ctx, logging.RoleKey, claims.Role)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// skip reports whether the request bypasses authentication. Exact paths
// are always open; prefix paths are open for reads only, so mutations on
// otherwise public resources still require a token.
func (m *AuthMiddleware) skip(method, path string) bool {
	if m.skipPaths[path] {
		return true
	}
	if method != http.MethodGet && method != http.MethodHead && method != http.MethodOptions {
		return false
	}
	for _, prefix := range m.skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil {
		serviceErr = errors.Internal("authentication failed", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(serviceErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   serviceErr.Code,
		"message": serviceErr.Message,
	})

	m.logger.WithContext(r.Context()).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
		"status": serviceErr.HTTPStatus,
	}).Warn("authentication failed")
}

// GetUserID extracts the authenticated user ID from context.
func GetUserID(ctx context.Context) string {
	return logging.GetUserID(ctx)
}

// GetUserRole extracts the authenticated user role from context.
func GetUserRole(ctx context.Context) string {
	return logging.GetRole(ctx)
}

// RequireAdmin rejects requests whose token does not carry the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserRole(r.Context()) != "admin" {
			serviceErr := errors.Forbidden("admin role required")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(serviceErr.HTTPStatus)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   serviceErr.Code,
				"message": serviceErr.Message,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
