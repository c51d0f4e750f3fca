// Package auth implements the forum service's admin authentication:
// bcrypt-hashed credentials, HS256 bearer tokens, and the HTTP middleware
// guarding admin mutations. Visitors never authenticate; only the triage
// surface under /auth/ requires a token.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/openfloor/openfloor/internal/server/store"
)

// DefaultTokenTTL is how long issued tokens stay valid.
const DefaultTokenTTL = 30 * time.Minute

// Service issues and verifies admin tokens against the user store.
type Service struct {
	store    *store.Store
	secret   []byte
	tokenTTL time.Duration
}

// Claims is the JWT payload carried by admin tokens.
type Claims struct {
	Username string `json:"sub"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// NewService creates an auth service. The signing secret must not be
// empty; there is no insecure default.
func NewService(s *store.Store, secret string, tokenTTL time.Duration) (*Service, error) {
	if s == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}

	return &Service{store: s, secret: []byte(secret), tokenTTL: tokenTTL}, nil
}

// Register creates a new admin account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, email, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("username and password cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.store.SaveUser(ctx, &store.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         "admin",
	})
}

// Login verifies credentials and returns a signed bearer token.
// Wrong username and wrong password produce the same error, so a caller
// cannot probe which accounts exist.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		if store.IsNotFound(err) {
			return "", fmt.Errorf("incorrect username or password")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("incorrect username or password")
	}

	now := time.Now()
	claims := &Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return token, nil
}

// VerifyToken parses and validates a bearer token string.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// Middleware rejects requests without a valid admin bearer token.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		if _, err := s.VerifyToken(tokenString); err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "could not validate credentials", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
