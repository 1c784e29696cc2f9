package widgets

import (
	"context"

	"staycal/internal/app/dto"
	"staycal/internal/app/queries"
	"staycal/internal/domain/shared/daterange"
)

const (
	ViewKey      = "widget.view"
	SelectionKey = "widget.selection"
	OccupiedKey  = "widget.occupied"
	ExportKey    = "widget.export"
)

// ViewQuery renders a session; a zero Month keeps the current month.
type ViewQuery struct {
	SessionID string `validate:"required"`
	Month     daterange.Date
}

func (ViewQuery) Key() string { return ViewKey }

type SelectionQuery struct {
	SessionID string `validate:"required"`
}

func (SelectionQuery) Key() string { return SelectionKey }

type OccupiedQuery struct {
	SessionID string `validate:"required"`
}

func (OccupiedQuery) Key() string         { return OccupiedKey }
func (OccupiedQuery) RequiresAdmin() bool { return true }

type ExportQuery struct {
	SessionID string `validate:"required"`
}

func (ExportQuery) Key() string         { return ExportKey }
func (ExportQuery) RequiresAdmin() bool { return true }

func (h *Handlers) View(_ context.Context, q ViewQuery) (dto.WidgetView, error) {
	s, err := h.Registry.Get(q.SessionID)
	if err != nil {
		return dto.WidgetView{}, err
	}
	return s.View(q.Month), nil
}

func (h *Handlers) Selection(_ context.Context, q SelectionQuery) (dto.Selection, error) {
	s, err := h.Registry.Get(q.SessionID)
	if err != nil {
		return dto.Selection{}, err
	}
	return s.Selection(), nil
}

func (h *Handlers) Occupied(_ context.Context, q OccupiedQuery) (dto.OccupiedList, error) {
	s, err := h.Registry.Get(q.SessionID)
	if err != nil {
		return dto.OccupiedList{}, err
	}
	return s.Occupied(), nil
}

func (h *Handlers) Export(_ context.Context, q ExportQuery) (dto.CalendarExport, error) {
	s, err := h.Registry.Get(q.SessionID)
	if err != nil {
		return dto.CalendarExport{}, err
	}
	return s.Export(), nil
}

func RegisterQueries(bus *queries.InMemoryBus, h *Handlers) {
	queries.Register(bus, h.View)
	queries.Register(bus, h.Selection)
	queries.Register(bus, h.Occupied)
	queries.Register(bus, h.Export)
}
