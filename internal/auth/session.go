// Package auth gates mutating operations behind a password unlock that issues
// a short-lived signed session token.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jengzang/sitetrack-backend-go/internal/config"
)

var (
	ErrBadPassword  = errors.New("incorrect password")
	ErrInvalidToken = errors.New("invalid or expired session")
)

const adminSubject = "admin"

// Claims are the admin session token claims.
type Claims struct {
	jwt.RegisteredClaims
}

// Session is an issued admin session.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Sessions issues and verifies admin session tokens.
type Sessions struct {
	secret   []byte
	password string
	ttl      time.Duration
	now      func() time.Time
}

// NewSessions builds the session manager. Without a configured secret a random
// one is generated, so sessions end with the process.
func NewSessions(cfg config.AuthConfig) (*Sessions, error) {
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Sessions{secret: secret, password: cfg.AdminPassword, ttl: ttl, now: time.Now}, nil
}

// Unlock checks the admin password and issues a session token.
func (s *Sessions) Unlock(password string) (Session, error) {
	if s.password == "" || subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) != 1 {
		return Session{}, ErrBadPassword
	}

	now := s.now()
	expires := now.Add(s.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   adminSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return Session{Token: token, ExpiresAt: expires.UTC()}, nil
}

// Verify parses token and checks its signature, subject and expiry.
func (s *Sessions) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithSubject(adminSubject),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
