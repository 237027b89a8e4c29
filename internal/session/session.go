// Package session inspects the upstream-issued access token. The daemon never
// validates signatures (only the server holds the secret); it reads the claims
// to know who it is syncing for and when the token runs out.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Session is the decoded access token.
type Session struct {
	Token     string
	UserID    uint
	Email     string
	ExpiresAt time.Time
}

var ErrNoUser = errors.New("session: token has no user_id claim")

// FromToken decodes a bearer token without verifying its signature.
func FromToken(token string) (*Session, error) {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	if claims.UserID == 0 {
		return nil, ErrNoUser
	}

	s := &Session{
		Token:  token,
		UserID: claims.UserID,
		Email:  claims.Email,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Expired reports whether the token is past its expiry. Tokens without an exp
// claim never expire here; the upstream rejects them on its own schedule.
func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// ExpiresWithin reports whether the token runs out inside d, used to warn
// before the connection starts failing auth.
func (s *Session) ExpiresWithin(d time.Duration) bool {
	return !s.ExpiresAt.IsZero() && time.Now().Add(d).After(s.ExpiresAt)
}
