package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainauth "staycal/internal/domain/auth"
)

var ErrInvalidSecret = errors.New("auth: invalid secret")

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenGenerator interface {
	NewToken() (string, error)
}

// Service guards admin operations behind the property's shared secret.
type Service struct {
	SecretHash string
	Sessions   domainauth.SessionStore
	Passwords  PasswordHasher
	Tokens     TokenGenerator
	SessionTTL time.Duration
	Now        func() time.Time
	Logger     *slog.Logger
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
}

// Login exchanges the shared secret for an admin token. There is no lockout;
// every failed attempt gets the same answer.
func (s *Service) Login(ctx context.Context, secret string) (*LoginResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	if secret == "" {
		return nil, ErrInvalidSecret
	}
	if err := s.Passwords.Compare(s.SecretHash, secret); err != nil {
		if s.Logger != nil {
			s.Logger.Info("admin login rejected")
		}
		return nil, ErrInvalidSecret
	}
	token, err := s.Tokens.NewToken()
	if err != nil {
		return nil, err
	}
	session, err := domainauth.NewSession(domainauth.CreateSessionParams{
		Token: domainauth.Token(token),
		Role:  domainauth.RoleAdmin,
		TTL:   s.sessionTTL(),
		Now:   s.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("admin authenticated", "expires_at", session.ExpiresAt)
	}
	return &LoginResult{Token: token, ExpiresAt: session.ExpiresAt}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.ensureDependencies(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if err := s.Sessions.Delete(ctx, domainauth.Token(token)); err != nil && !errors.Is(err, domainauth.ErrSessionNotFound) {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("admin session terminated")
	}
	return nil
}

// ResolveToken returns the live session for token.
func (s *Service) ResolveToken(ctx context.Context, token string) (*domainauth.Session, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domainauth.ErrTokenRequired
	}
	session, err := s.Sessions.Get(ctx, domainauth.Token(token))
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		_ = s.Sessions.Delete(ctx, session.Token)
		return nil, domainauth.ErrSessionNotFound
	}
	return session, nil
}

// PurgeExpired is called periodically to keep the session store small.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	if s.Sessions == nil {
		return 0, nil
	}
	return s.Sessions.DeleteExpired(ctx, s.now())
}

func (s *Service) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return 8 * time.Hour
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.SecretHash == "":
		return errors.New("auth: admin secret not configured")
	case s.Sessions == nil:
		return errors.New("auth: session store required")
	case s.Passwords == nil:
		return errors.New("auth: password hasher required")
	case s.Tokens == nil:
		return errors.New("auth: token generator required")
	default:
		return nil
	}
}
