// Package users handles registration, login and JWT issuance.
package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/afl-fantasy/platform/internal/app/domain/user"
	"github.com/afl-fantasy/platform/internal/app/storage"
	"github.com/afl-fantasy/platform/internal/errors"
	"github.com/afl-fantasy/platform/internal/logging"
)

const minPasswordLength = 8

// Service manages user accounts and session tokens.
type Service struct {
	store     storage.UserStore
	jwtSecret []byte
	tokenTTL  time.Duration
	log       *logging.Logger
}

// Claims is the JWT payload issued on login.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// New constructs a user service.
func New(store storage.UserStore, jwtSecret string, tokenTTL time.Duration, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("users")
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		store:     store,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, email, displayName, password string) (user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)

	if email == "" || !strings.Contains(email, "@") {
		return user.User{}, errors.Validation("a valid email is required")
	}
	if displayName == "" {
		return user.User{}, errors.Validation("display_name is required")
	}
	if len(password) < minPasswordLength {
		return user.User{}, errors.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return user.User{}, errors.Conflict("an account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, errors.Internal("hash password", err)
	}

	created, err := s.store.CreateUser(ctx, user.User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Role:         user.RoleUser,
	})
	if err != nil {
		return user.User{}, err
	}

	s.log.WithField("user_id", created.ID).Info("user registered")
	return created, nil
}

// Login verifies credentials and issues a signed JWT.
func (s *Service) Login(ctx context.Context, email, password string) (user.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	account, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return user.User{}, "", errors.Unauthorized("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.log.LogSecurityEvent(ctx, "login_failed", map[string]interface{}{"email": email})
		return user.User{}, "", errors.Unauthorized("invalid email or password")
	}

	token, err := s.issueToken(account)
	if err != nil {
		return user.User{}, "", errors.Internal("sign token", err)
	}
	return account, token, nil
}

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, id string) (user.User, error) {
	return s.store.GetUser(ctx, id)
}

// VerifyToken parses and validates a JWT, returning its claims.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.InvalidToken(err)
	}
	return claims, nil
}

func (s *Service) issueToken(account user.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(account.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			Issuer:    "afl-fantasy-platform",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
