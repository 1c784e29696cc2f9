package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrTokenRequired   = errors.New("auth: token is required")
	ErrTTLInvalid      = errors.New("auth: ttl must be positive")
	ErrSessionNotFound = errors.New("auth: session not found")
)

type Token string

// Role is the authority a session carries. There is a single shared admin
// secret, so admin is the only role issued.
type Role string

const RoleAdmin Role = "admin"

type Session struct {
	Token     Token
	Role      Role
	CreatedAt time.Time
	ExpiresAt time.Time
}

type CreateSessionParams struct {
	Token Token
	Role  Role
	TTL   time.Duration
	Now   time.Time
}

func NewSession(params CreateSessionParams) (*Session, error) {
	token := strings.TrimSpace(string(params.Token))
	if token == "" {
		return nil, ErrTokenRequired
	}
	if params.TTL <= 0 {
		return nil, ErrTTLInvalid
	}
	role := params.Role
	if role == "" {
		role = RoleAdmin
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Session{
		Token:     Token(token),
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(params.TTL),
	}, nil
}

func (s *Session) Expired(at time.Time) bool {
	if at.IsZero() {
		at = time.Now()
	}
	return !s.ExpiresAt.After(at.UTC())
}

type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, token Token) (*Session, error)
	Delete(ctx context.Context, token Token) error
	// DeleteExpired drops sessions expired at the given instant and returns
	// how many were removed.
	DeleteExpired(ctx context.Context, at time.Time) (int, error)
}
