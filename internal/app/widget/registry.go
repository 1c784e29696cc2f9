package widget

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"staycal/internal/app/dto"
	"staycal/internal/clock"
	"staycal/internal/domain/availability"
	"staycal/internal/domain/booking"
)

// Config is shared by every session a registry opens.
type Config struct {
	Property    string
	Policy      booking.Policy
	Backend     availability.Backend
	Clock       clock.Clock
	Logger      *slog.Logger
	IdleTTL     time.Duration
	MaxSessions int
}

// Registry owns the open widget sessions and expires idle ones.
type Registry struct {
	cfg   Config
	newID func() string

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Backend == nil {
		return nil, availability.ErrNoBackend
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewSystem(time.UTC)
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	return &Registry{
		cfg:      cfg,
		newID:    uuid.NewString,
		sessions: make(map[string]*Session),
	}, nil
}

// Open creates a session and loads its calendar.
func (r *Registry) Open(ctx context.Context) (*Session, dto.WidgetView, error) {
	if r.cfg.MaxSessions > 0 && r.Len() >= r.cfg.MaxSessions {
		if r.Sweep() == 0 {
			return nil, dto.WidgetView{}, ErrTooManySessions
		}
	}
	s := newSession(r.newID(), r.cfg)
	view := s.Open(ctx)
	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
	if r.cfg.Logger != nil {
		r.cfg.Logger.Debug("widget session opened", "session", s.id)
	}
	return s, view, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than IdleTTL and returns how many it
// closed. Unsaved admin edits in those sessions are dropped.
func (r *Registry) Sweep() int {
	now := r.cfg.Clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	closed := 0
	for id, s := range r.sessions {
		if s.idleSince(now) > r.cfg.IdleTTL {
			delete(r.sessions, id)
			closed++
		}
	}
	if closed > 0 && r.cfg.Logger != nil {
		r.cfg.Logger.Info("idle widget sessions closed", "count", closed, "open", len(r.sessions))
	}
	return closed
}

// Run sweeps on every tick until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			r.Sweep()
		}
	}
}
