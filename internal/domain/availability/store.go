package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"staycal/internal/domain/shared/daterange"
	"staycal/internal/domain/shared/events"
)

// Backend is the durable home of the occupied set. Load returns the stored
// dates as canonical strings; Save replaces the stored contents entirely.
type Backend interface {
	Name() string
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, dates []string) error
}

type StoreOptions struct {
	Property string
	Logger   *slog.Logger
	Now      func() time.Time
}

// Store is the single source of truth for occupied days within one widget
// session. It is not safe for concurrent use; callers serialize access.
type Store struct {
	backend  Backend
	property string
	logger   *slog.Logger
	now      func() time.Time
	set      *OccupiedSet
	dirty    bool
	// synced is set once the set reflects the backend or was replaced
	// wholesale; Save refuses to run otherwise.
	synced bool
	events.EventRecorder
}

func NewStore(backend Backend, opts StoreOptions) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		backend:  backend,
		property: opts.Property,
		logger:   opts.Logger,
		now:      now,
		set:      NewOccupiedSet(),
	}
}

// Load replaces the in-memory set with the backend contents. When the backend
// fails or answers with something unparsable the set falls back to empty and
// the cause is returned; the returned set is usable in both cases.
func (s *Store) Load(ctx context.Context) (*OccupiedSet, error) {
	s.dirty = false
	s.synced = false
	if s.backend == nil {
		s.set = NewOccupiedSet()
		return s.set.Clone(), ErrNoBackend
	}
	raw, err := s.backend.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrMalformedPayload) && !IsTransport(err) {
			err = &TransportError{Backend: s.backend.Name(), Op: "load", Err: err}
		}
		return s.fallback(err)
	}
	set, err := ParseOccupiedSet(raw)
	if err != nil {
		return s.fallback(fmt.Errorf("%w: %v", ErrMalformedPayload, err))
	}
	s.set = set
	s.synced = true
	s.debug("occupied dates loaded", "count", set.Len())
	return set.Clone(), nil
}

func (s *Store) fallback(err error) (*OccupiedSet, error) {
	s.set = NewOccupiedSet()
	if s.logger != nil {
		s.logger.Warn("occupied dates load failed, continuing with empty calendar", "backend", s.BackendName(), "error", err)
	}
	return s.set.Clone(), err
}

// Toggle flips membership of d in memory only and reports whether d is
// occupied afterwards.
func (s *Store) Toggle(d daterange.Date) (bool, error) {
	if d.IsZero() {
		return false, ErrInvalidDate
	}
	occupied := s.set.Toggle(d)
	s.dirty = true
	return occupied, nil
}

// ReplaceAll overwrites the in-memory set.
func (s *Store) ReplaceAll(dates []daterange.Date) error {
	for _, d := range dates {
		if d.IsZero() {
			return ErrInvalidDate
		}
	}
	s.set = NewOccupiedSet(dates...)
	s.dirty = true
	s.synced = true
	return nil
}

// Save writes the full in-memory set to the backend, overwriting whatever it
// held. On failure the in-memory set is untouched and still marked dirty.
// Save returns ErrNotLoaded until a Load succeeded or ReplaceAll staged a full
// set, so a failed load cannot wipe the stored calendar.
func (s *Store) Save(ctx context.Context) error {
	if s.backend == nil {
		return ErrNoBackend
	}
	if !s.synced {
		return ErrNotLoaded
	}
	dates := s.set.Strings()
	if err := s.backend.Save(ctx, dates); err != nil {
		if errors.Is(err, ErrReadOnlyBackend) || IsTransport(err) {
			return err
		}
		return &TransportError{Backend: s.backend.Name(), Op: "save", Err: err}
	}
	s.dirty = false
	s.Record(CalendarSaved{
		Property: s.property,
		Backend:  s.backend.Name(),
		Dates:    dates,
		At:       s.now().UTC(),
	})
	s.debug("occupied dates saved", "count", len(dates))
	return nil
}

func (s *Store) Has(d daterange.Date) bool {
	return s.set.Has(d)
}

// AnyBetween reports whether an occupied day lies strictly between from and to.
func (s *Store) AnyBetween(from, to daterange.Date) bool {
	return s.set.AnyBetween(from, to)
}

// Snapshot returns a copy of the current set.
func (s *Store) Snapshot() *OccupiedSet {
	return s.set.Clone()
}

// Dirty reports whether there are edits not yet saved.
func (s *Store) Dirty() bool { return s.dirty }

func (s *Store) BackendName() string {
	if s.backend == nil {
		return ""
	}
	return s.backend.Name()
}

func (s *Store) debug(msg string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Debug(msg, append([]any{"backend", s.BackendName()}, args...)...)
}
