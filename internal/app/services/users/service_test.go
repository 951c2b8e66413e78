package users

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/afl-fantasy/platform/internal/app/domain/user"
	"github.com/afl-fantasy/platform/internal/app/storage/memory"
	"github.com/afl-fantasy/platform/internal/errors"
)

func TestRegisterAndLogin(t *testing.T) {
	svc := New(memory.New(), "test-secret", time.Hour, nil)
	ctx := context.Background()

	created, err := svc.Register(ctx, "Coach@Example.com", "Coach", "correct-horse")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.Email != "coach@example.com" {
		t.Fatalf("expected lowercased email, got %q", created.Email)
	}
	if created.Role != user.RoleUser {
		t.Fatalf("expected role %q, got %q", user.RoleUser, created.Role)
	}
	if created.PasswordHash == "correct-horse" {
		t.Fatal("password stored in plaintext")
	}

	account, token, err := svc.Login(ctx, "coach@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if account.ID != created.ID {
		t.Fatalf("login returned wrong account: %s != %s", account.ID, created.ID)
	}
	if token == "" {
		t.Fatal("expected a token")
	}

	claims, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if claims.Subject != created.ID {
		t.Fatalf("expected subject %s, got %s", created.ID, claims.Subject)
	}
	if claims.Role != string(user.RoleUser) {
		t.Fatalf("expected role claim %q, got %q", user.RoleUser, claims.Role)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := New(memory.New(), "test-secret", time.Hour, nil)
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		display  string
		password string
	}{
		{"missing email", "", "Coach", "correct-horse"},
		{"malformed email", "not-an-email", "Coach", "correct-horse"},
		{"missing display name", "coach@example.com", "", "correct-horse"},
		{"short password", "coach@example.com", "Coach", "short"},
	}
	for _, tc := range cases {
		if _, err := svc.Register(ctx, tc.email, tc.display, tc.password); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := New(memory.New(), "test-secret", time.Hour, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "coach@example.com", "Coach", "correct-horse"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, "COACH@example.com", "Other", "correct-horse")
	if err == nil {
		t.Fatal("expected conflict on duplicate email")
	}
	if status := errors.HTTPStatus(err); status != http.StatusConflict {
		t.Fatalf("expected 409 conflict, got %d (%v)", status, err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := New(memory.New(), "test-secret", time.Hour, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "coach@example.com", "Coach", "correct-horse"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, err := svc.Login(ctx, "coach@example.com", "wrong-horse")
	if err == nil {
		t.Fatal("expected login failure")
	}
	if status := errors.HTTPStatus(err); status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (%v)", status, err)
	}

	// Unknown email fails the same way so accounts cannot be enumerated.
	_, _, err = svc.Login(ctx, "nobody@example.com", "correct-horse")
	if status := errors.HTTPStatus(err); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown email, got %d (%v)", status, err)
	}
}

func TestVerifyTokenRejectsForeignSecret(t *testing.T) {
	issuer := New(memory.New(), "secret-a", time.Hour, nil)
	verifier := New(memory.New(), "secret-b", time.Hour, nil)
	ctx := context.Background()

	if _, err := issuer.Register(ctx, "coach@example.com", "Coach", "correct-horse"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, token, err := issuer.Login(ctx, "coach@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := verifier.VerifyToken(token); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	svc := New(memory.New(), "test-secret", time.Hour, nil)
	svc.tokenTTL = -time.Minute
	ctx := context.Background()

	if _, err := svc.Register(ctx, "coach@example.com", "Coach", "correct-horse"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, token, err := svc.Login(ctx, "coach@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := svc.VerifyToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}
