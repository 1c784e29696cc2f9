package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/go-redis/redis/v8"

	domainauth "staycal/internal/domain/auth"
)

// SessionStore keeps admin sessions in redis with the session's own expiry
// as key TTL, so tokens survive restarts and expire without sweeping.
type SessionStore struct {
	client goredis.Cmdable
	prefix string
}

func NewSessionStore(client goredis.Cmdable, prefix string) *SessionStore {
	if prefix == "" {
		prefix = "staycal:admin-session:"
	}
	return &SessionStore{client: client, prefix: prefix}
}

type sessionRecord struct {
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	if session == nil {
		return domainauth.ErrTokenRequired
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return domainauth.ErrTTLInvalid
	}
	raw, err := json.Marshal(sessionRecord{Role: string(session.Role), CreatedAt: session.CreatedAt, ExpiresAt: session.ExpiresAt})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+string(session.Token), raw, ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	raw, err := s.client.Get(ctx, s.prefix+string(token)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domainauth.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &domainauth.Session{
		Token:     token,
		Role:      domainauth.Role(rec.Role),
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	n, err := s.client.Del(ctx, s.prefix+string(token)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return domainauth.ErrSessionNotFound
	}
	return nil
}

// DeleteExpired is a no-op: redis drops expired keys itself.
func (s *SessionStore) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}

var _ domainauth.SessionStore = (*SessionStore)(nil)
