package memory

import (
	"context"
	"sync"
	"time"

	domainauth "staycal/internal/domain/auth"
)

// SessionStore keeps admin bearer sessions in memory. Expiry is judged by
// the caller's clock; DeleteExpired reclaims space.
type SessionStore struct {
	mu     sync.RWMutex
	tokens map[domainauth.Token]*domainauth.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{tokens: make(map[domainauth.Token]*domainauth.Session)}
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	if session == nil {
		return domainauth.ErrTokenRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[session.Token] = cloneSession(session)
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	s.mu.RLock()
	session, ok := s.tokens[token]
	s.mu.RUnlock()
	if !ok {
		return nil, domainauth.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[token]; !ok {
		return domainauth.ErrSessionNotFound
	}
	delete(s.tokens, token)
	return nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, session := range s.tokens {
		if session.Expired(at) {
			delete(s.tokens, token)
			removed++
		}
	}
	return removed, nil
}

func cloneSession(s *domainauth.Session) *domainauth.Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

var _ domainauth.SessionStore = (*SessionStore)(nil)
