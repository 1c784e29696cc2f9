package widget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"staycal/internal/app/dto"
	"staycal/internal/clock"
	"staycal/internal/domain/availability"
	"staycal/internal/domain/booking"
	"staycal/internal/domain/shared/daterange"
	"staycal/internal/domain/shared/events"
)

var (
	ErrSessionNotFound = errors.New("widget: session not found")
	ErrAdminRequired   = errors.New("widget: admin mode requires an admin session")
	ErrTooManySessions = errors.New("widget: too many open sessions")
)

const (
	NoticeLoadFailed   booking.NoticeKind = "load_failed"
	NoticeSaveFailed   booking.NoticeKind = "save_failed"
	NoticeSaved        booking.NoticeKind = "saved"
	NoticeDateToggled  booking.NoticeKind = "date_toggled"
	NoticeDatesReplace booking.NoticeKind = "dates_replaced"
)

// Session is one calendar widget. All methods serialize on the session
// mutex, so a session sees its events strictly one after another.
type Session struct {
	id       string
	property string
	clock    clock.Clock
	logger   *slog.Logger

	mu       sync.Mutex
	store    *availability.Store
	selector *booking.Selector
	month    daterange.Date

	lastSeen atomic.Int64
}

func newSession(id string, cfg Config) *Session {
	s := &Session{
		id:       id,
		property: cfg.Property,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		store: availability.NewStore(cfg.Backend, availability.StoreOptions{
			Property: cfg.Property,
			Logger:   cfg.Logger,
			Now:      cfg.Clock.Now,
		}),
		selector: booking.NewSelector(cfg.Policy),
	}
	s.touch()
	return s
}

func (s *Session) ID() string { return s.id }

// Open loads the occupied set. A failed load still yields a usable view with
// an empty calendar and a notice explaining why.
func (s *Session) Open(ctx context.Context) dto.WidgetView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	var notices []booking.Notice
	if _, err := s.store.Load(ctx); err != nil {
		notices = append(notices, booking.Notice{
			Kind:     NoticeLoadFailed,
			Severity: booking.SeverityError,
			Message:  "Availability could not be loaded. The calendar may show occupied dates as free.",
		})
	}
	return s.view(notices)
}

// View renders the widget. A non-zero month moves the grid to that month.
func (s *Session) View(month daterange.Date) dto.WidgetView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if !month.IsZero() {
		s.month = month.FirstOfMonth()
	}
	return s.view(nil)
}

// Click feeds a day click to the selector. admin reports whether the caller
// holds an admin session; an admin-mode widget without one drops back to
// guest mode.
func (s *Session) Click(d daterange.Date, admin bool) (dto.WidgetView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if d.IsZero() {
		return s.view(nil), availability.ErrInvalidDate
	}
	if s.selector.Mode() == booking.ModeAdmin && !admin {
		_ = s.selector.SetMode(booking.ModeGuest)
		return s.view(nil), ErrAdminRequired
	}
	out := s.selector.HandleClick(d, s.today(), s.store)
	var notices []booking.Notice
	if out.Notice != nil {
		notices = append(notices, *out.Notice)
	}
	if out.Toggle {
		occupied, err := s.store.Toggle(d)
		if err != nil {
			return s.view(notices), err
		}
		msg := fmt.Sprintf("%s marked available.", d)
		if occupied {
			msg = fmt.Sprintf("%s marked occupied.", d)
		}
		notices = append(notices, booking.Notice{Kind: NoticeDateToggled, Severity: booking.SeverityInfo, Message: msg, Date: d})
	}
	return s.view(notices), nil
}

func (s *Session) Reset() dto.WidgetView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.selector.Reset()
	return s.view(nil)
}

func (s *Session) SetMode(mode booking.Mode, admin bool) (dto.WidgetView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if mode == booking.ModeAdmin && !admin {
		return s.view(nil), ErrAdminRequired
	}
	if err := s.selector.SetMode(mode); err != nil {
		return s.view(nil), err
	}
	return s.view(nil), nil
}

// Replace overwrites the in-memory occupied set. Nothing is persisted until
// Save.
func (s *Session) Replace(dates []daterange.Date) (dto.WidgetView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if err := s.store.ReplaceAll(dates); err != nil {
		return s.view(nil), err
	}
	s.selector.Reset()
	return s.view([]booking.Notice{{
		Kind:     NoticeDatesReplace,
		Severity: booking.SeverityInfo,
		Message:  fmt.Sprintf("%d occupied dates staged. Save to publish them.", s.store.Snapshot().Len()),
	}}), nil
}

// Save persists the occupied set and returns the events it produced. On
// failure the edits stay in memory so the caller can retry.
func (s *Session) Save(ctx context.Context) (dto.WidgetView, []events.DomainEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if err := s.store.Save(ctx); err != nil {
		if s.logger != nil {
			s.logger.Warn("occupied dates save failed", "session", s.id, "error", err)
		}
		msg := "Saving failed. Your changes are kept; try again."
		switch {
		case errors.Is(err, availability.ErrReadOnlyBackend):
			msg = "This calendar is read-only. Publish a new document to change it."
		case errors.Is(err, availability.ErrNotLoaded):
			msg = "The saved calendar could not be loaded. Reopen the widget before saving."
		}
		return s.view([]booking.Notice{{Kind: NoticeSaveFailed, Severity: booking.SeverityError, Message: msg}}), nil, err
	}
	view := s.view([]booking.Notice{{
		Kind:     NoticeSaved,
		Severity: booking.SeveritySuccess,
		Message:  "Availability saved.",
	}})
	return view, s.store.DrainEvents(), nil
}

// Occupied lists the in-memory occupied dates ascending.
func (s *Session) Occupied() dto.OccupiedList {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	dates := s.store.Snapshot().Strings()
	return dto.OccupiedList{Dates: dates, Count: len(dates)}
}

func (s *Session) Export() dto.CalendarExport {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return dto.CalendarExport{
		OccupiedDates: s.store.Snapshot().Strings(),
		ExportDate:    s.clock.Now().UTC(),
		Property:      s.property,
	}
}

// Selection returns the current selection without rendering a month.
func (s *Session) Selection() dto.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return dto.MapSelection(s.selector.State())
}

func (s *Session) today() daterange.Date {
	return daterange.DateOf(s.clock.Now())
}

func (s *Session) view(notices []booking.Notice) dto.WidgetView {
	today := s.today()
	anchor := s.month
	if anchor.IsZero() {
		anchor = today
	}
	state := s.selector.State()
	if notices == nil {
		notices = []booking.Notice{}
	}
	return dto.WidgetView{
		SessionID:     s.id,
		Property:      s.property,
		Mode:          s.selector.Mode(),
		Today:         today,
		Policy:        s.selector.Policy(),
		Selection:     dto.MapSelection(state),
		Month:         booking.BuildMonth(anchor, today, s.store, s.selector.Policy(), state, s.selector.Mode()),
		Notices:       notices,
		Dirty:         s.store.Dirty(),
		Backend:       s.store.BackendName(),
		OccupiedCount: s.store.Snapshot().Len(),
	}
}

func (s *Session) touch() {
	s.lastSeen.Store(s.clock.Now().UnixNano())
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}
