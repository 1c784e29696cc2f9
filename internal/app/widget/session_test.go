package widget

import (
	"context"
	"errors"
	"testing"
	"time"

	"staycal/internal/clock"
	"staycal/internal/domain/availability"
	"staycal/internal/domain/booking"
	"staycal/internal/domain/shared/daterange"
	"staycal/internal/infra/storage/memory"
)

type failingBackend struct {
	loadErr error
	saveErr error
	saved   []string
}

func (f *failingBackend) Name() string { return "failing" }

func (f *failingBackend) Load(context.Context) ([]string, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return nil, nil
}

func (f *failingBackend) Save(_ context.Context, dates []string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = dates
	return nil
}

var testNow = time.Date(2026, 11, 1, 10, 0, 0, 0, time.UTC)

func day(s string) daterange.Date { return daterange.MustParse(s) }

func newTestRegistry(t *testing.T, backend availability.Backend) (*Registry, *clock.Manual) {
	t.Helper()
	clk := clock.NewFixed(testNow)
	reg, err := NewRegistry(Config{
		Property: "casa",
		Policy:   booking.Policy{MinimumNights: 5, AdvanceNoticeDays: 5},
		Backend:  backend,
		Clock:    clk,
		IdleTTL:  time.Hour,
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg, clk
}

func TestOpenLoadsOccupiedDates(t *testing.T) {
	reg, _ := newTestRegistry(t, memory.NewOccupiedBackend("2026-11-20", "2026-11-21"))
	_, view, err := reg.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if view.OccupiedCount != 2 || view.Backend != "memory" || len(view.Notices) != 0 {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Month.Month != time.November || view.Month.Days[19].Status != booking.StatusOccupied {
		t.Fatalf("expected november grid with day 20 occupied")
	}
	if view.Mode != booking.ModeGuest || view.Selection.Phase != booking.PhaseEmpty {
		t.Fatalf("new sessions start in guest mode with no selection")
	}
}

func TestOpenWithFailingBackendWarns(t *testing.T) {
	reg, _ := newTestRegistry(t, &failingBackend{loadErr: errors.New("connection refused")})
	_, view, err := reg.Open(context.Background())
	if err != nil {
		t.Fatalf("open must not fail: %v", err)
	}
	if len(view.Notices) != 1 || view.Notices[0].Kind != NoticeLoadFailed {
		t.Fatalf("expected load warning, got %+v", view.Notices)
	}
	if view.OccupiedCount != 0 {
		t.Fatalf("expected empty calendar")
	}
}

func TestGuestSelection(t *testing.T) {
	reg, _ := newTestRegistry(t, memory.NewOccupiedBackend())
	s, _, _ := reg.Open(context.Background())

	view, err := s.Click(day("2026-11-10"), false)
	if err != nil {
		t.Fatalf("click: %v", err)
	}
	if view.Selection.Phase != booking.PhaseCheckInOnly || view.Notices[0].Kind != booking.NoticeCheckInSelected {
		t.Fatalf("unexpected first click view %+v", view.Selection)
	}
	view, err = s.Click(day("2026-11-17"), false)
	if err != nil {
		t.Fatalf("click: %v", err)
	}
	if view.Selection.Phase != booking.PhaseCommitted || view.Selection.Nights != 7 {
		t.Fatalf("expected 7 committed nights, got %+v", view.Selection)
	}
	if sel := s.Selection(); sel.CheckOut.String() != "2026-11-17" {
		t.Fatalf("unexpected selection %+v", sel)
	}
	if view := s.Reset(); view.Selection.Phase != booking.PhaseEmpty {
		t.Fatalf("reset must clear selection")
	}
}

func TestInvalidDateRejected(t *testing.T) {
	reg, _ := newTestRegistry(t, memory.NewOccupiedBackend())
	s, _, _ := reg.Open(context.Background())
	if _, err := s.Click(daterange.Date{}, false); !errors.Is(err, availability.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestAdminToggleAndSave(t *testing.T) {
	backend := memory.NewOccupiedBackend("2026-11-20")
	reg, _ := newTestRegistry(t, backend)
	s, _, _ := reg.Open(context.Background())

	if _, err := s.SetMode(booking.ModeAdmin, false); !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("expected ErrAdminRequired, got %v", err)
	}
	if _, err := s.SetMode(booking.ModeAdmin, true); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	view, err := s.Click(day("2026-11-20"), true)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if view.Month.Days[19].Status != booking.StatusAvailable || !view.Dirty {
		t.Fatalf("expected day 20 available and dirty view")
	}
	if _, err := s.Click(day("2026-11-03"), true); err != nil {
		t.Fatalf("toggle inside notice window: %v", err)
	}
	view, evs, err := s.Save(context.Background())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if view.Dirty || len(evs) != 1 || evs[0].EventName() != "calendar.saved" {
		t.Fatalf("unexpected save result dirty=%v events=%v", view.Dirty, evs)
	}
	stored, _ := backend.Load(context.Background())
	if len(stored) != 1 || stored[0] != "2026-11-03" {
		t.Fatalf("unexpected stored dates %v", stored)
	}
}

func TestAdminModeWithoutSessionFallsBack(t *testing.T) {
	reg, _ := newTestRegistry(t, memory.NewOccupiedBackend())
	s, _, _ := reg.Open(context.Background())
	if _, err := s.SetMode(booking.ModeAdmin, true); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	view, err := s.Click(day("2026-11-20"), false)
	if !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("expected ErrAdminRequired, got %v", err)
	}
	if view.Mode != booking.ModeGuest || view.OccupiedCount != 0 {
		t.Fatalf("session must drop to guest mode without toggling")
	}
}

func TestSaveRefusedAfterFailedLoad(t *testing.T) {
	backend := &failingBackend{loadErr: errors.New("connection refused")}
	reg, _ := newTestRegistry(t, backend)
	s, _, _ := reg.Open(context.Background())
	if _, err := s.SetMode(booking.ModeAdmin, true); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if _, err := s.Click(day("2026-12-01"), true); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	view, _, err := s.Save(context.Background())
	if !errors.Is(err, availability.ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if backend.saved != nil || view.Notices[0].Kind != NoticeSaveFailed || !view.Dirty {
		t.Fatalf("backend must stay untouched: saved=%v view=%+v", backend.saved, view)
	}
}

func TestSaveFailureKeepsEdits(t *testing.T) {
	backend := &failingBackend{saveErr: errors.New("timeout")}
	reg, _ := newTestRegistry(t, backend)
	s, _, _ := reg.Open(context.Background())
	if _, err := s.Replace([]daterange.Date{day("2026-12-01"), day("2026-12-02")}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	view, evs, err := s.Save(context.Background())
	if !availability.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if len(evs) != 0 || !view.Dirty || view.OccupiedCount != 2 || view.Notices[0].Kind != NoticeSaveFailed {
		t.Fatalf("edits must survive a failed save: %+v", view)
	}
	backend.saveErr = nil
	if _, _, err := s.Save(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(backend.saved) != 2 {
		t.Fatalf("retry did not persist edits: %v", backend.saved)
	}
}

func TestExportAndOccupied(t *testing.T) {
	reg, _ := newTestRegistry(t, memory.NewOccupiedBackend("2026-12-05", "2026-11-30"))
	s, _, _ := reg.Open(context.Background())
	exp := s.Export()
	if exp.Property != "casa" || len(exp.OccupiedDates) != 2 || exp.OccupiedDates[0] != "2026-11-30" {
		t.Fatalf("unexpected export %+v", exp)
	}
	if !exp.ExportDate.Equal(testNow) {
		t.Fatalf("unexpected export date %s", exp.ExportDate)
	}
	if list := s.Occupied(); list.Count != 2 {
		t.Fatalf("unexpected occupied list %+v", list)
	}
}

func TestViewNavigatesMonths(t *testing.T) {
	reg, _ := newTestRegistry(t, memory.NewOccupiedBackend())
	s, _, _ := reg.Open(context.Background())
	view := s.View(day("2027-02-14"))
	if view.Month.Year != 2027 || view.Month.Month != time.February || len(view.Month.Days) != 28 {
		t.Fatalf("unexpected month %d-%d", view.Month.Year, view.Month.Month)
	}
	if again := s.View(daterange.Date{}); again.Month.Month != time.February {
		t.Fatalf("zero month must keep current month")
	}
}
