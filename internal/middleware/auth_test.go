package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/afl-fantasy/platform/internal/app/services/users"
	"github.com/afl-fantasy/platform/internal/errors"
	"github.com/afl-fantasy/platform/internal/logging"

	"github.com/golang-jwt/jwt/v5"
)

type stubVerifier struct {
	claims *users.Claims
	err    error
}

func (s *stubVerifier) VerifyToken(string) (*users.Claims, error) {
	return s.claims, s.err
}

func okVerifier(subject, role string) *stubVerifier {
	return &stubVerifier{claims: &users.Claims{
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	}}
}

func newAuthHandler(verifier TokenVerifier, skip []string) http.Handler {
	mw := NewAuthMiddleware(verifier, logging.NewDefault("test"), skip)
	return mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-User", GetUserID(r.Context()))
		w.Header().Set("X-Role", GetUserRole(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))
}

func doRequest(h http.Handler, method, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	h := newAuthHandler(okVerifier("u1", "user"), nil)

	rec := doRequest(h, http.MethodGet, "/api/squads", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	h := newAuthHandler(okVerifier("u1", "user"), nil)

	for _, header := range []string{"token-without-scheme", "Basic dXNlcjpwYXNz"} {
		rec := doRequest(h, http.MethodGet, "/api/squads", header)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	verifier := &stubVerifier{err: errors.InvalidToken(nil)}
	h := newAuthHandler(verifier, nil)

	rec := doRequest(h, http.MethodGet, "/api/squads", "Bearer bad-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthPropagatesClaims(t *testing.T) {
	h := newAuthHandler(okVerifier("user-42", "admin"), nil)

	rec := doRequest(h, http.MethodGet, "/api/squads", "Bearer good-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-User") != "user-42" {
		t.Fatalf("expected user ID in context, got %q", rec.Header().Get("X-User"))
	}
	if rec.Header().Get("X-Role") != "admin" {
		t.Fatalf("expected role in context, got %q", rec.Header().Get("X-Role"))
	}
}

func TestAuthSkipsExactPathsForAllMethods(t *testing.T) {
	h := newAuthHandler(okVerifier("u1", "user"), []string{"/api/health", "/api/auth/login"})

	rec := doRequest(h, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected open GET, got %d", rec.Code)
	}
	rec = doRequest(h, http.MethodPost, "/api/auth/login", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected open POST on exact path, got %d", rec.Code)
	}
}

func TestAuthSkipsPrefixesForReadsOnly(t *testing.T) {
	h := newAuthHandler(okVerifier("u1", "user"), []string{"/api/players*"})

	rec := doRequest(h, http.MethodGet, "/api/players/123/scores", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected open GET under prefix, got %d", rec.Code)
	}
	rec = doRequest(h, http.MethodPost, "/api/players", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for POST under prefix, got %d", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	protected := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	adminChain := newAuthHandlerWithNext(okVerifier("a1", "admin"), protected)
	rec := doRequest(adminChain, http.MethodPost, "/api/players", "Bearer token")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected admin allowed, got %d", rec.Code)
	}

	userChain := newAuthHandlerWithNext(okVerifier("u1", "user"), protected)
	rec = doRequest(userChain, http.MethodPost, "/api/players", "Bearer token")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}
}

func newAuthHandlerWithNext(verifier TokenVerifier, next http.Handler) http.Handler {
	return NewAuthMiddleware(verifier, logging.NewDefault("test"), nil).Handler(next)
}
