package widgets

import (
	"context"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	"staycal/internal/app/outbox"
	appauth "staycal/internal/app/services/auth"
	"staycal/internal/app/widget"
	"staycal/internal/domain/booking"
	"staycal/internal/domain/shared/daterange"
)

const (
	OpenKey    = "widget.open"
	CloseKey   = "widget.close"
	ClickKey   = "widget.click"
	ResetKey   = "widget.reset"
	ModeKey    = "widget.mode"
	ReplaceKey = "widget.replace"
	SaveKey    = "widget.save"
)

type OpenCommand struct{}

func (OpenCommand) Key() string { return OpenKey }

type CloseCommand struct {
	SessionID string `validate:"required"`
}

func (CloseCommand) Key() string { return CloseKey }

type ClickCommand struct {
	SessionID string `validate:"required"`
	Date      daterange.Date
}

func (ClickCommand) Key() string { return ClickKey }

type ResetCommand struct {
	SessionID string `validate:"required"`
}

func (ResetCommand) Key() string { return ResetKey }

type ModeCommand struct {
	SessionID string       `validate:"required"`
	Mode      booking.Mode `validate:"oneof=guest admin"`
}

func (ModeCommand) Key() string { return ModeKey }

type ReplaceCommand struct {
	SessionID string `validate:"required"`
	Dates     []daterange.Date
}

func (ReplaceCommand) Key() string         { return ReplaceKey }
func (ReplaceCommand) RequiresAdmin() bool { return true }

type SaveCommand struct {
	SessionID string `validate:"required"`
}

func (SaveCommand) Key() string         { return SaveKey }
func (SaveCommand) RequiresAdmin() bool { return true }

// SaveError carries the rendered view alongside a failed save so the client
// can keep showing the unsaved edits.
type SaveError struct {
	View dto.WidgetView
	Err  error
}

func (e *SaveError) Error() string { return e.Err.Error() }
func (e *SaveError) Unwrap() error { return e.Err }

// Handlers serves every widget command from one registry.
type Handlers struct {
	Registry *widget.Registry
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
}

func (h *Handlers) Open(ctx context.Context, _ OpenCommand) (dto.WidgetView, error) {
	_, view, err := h.Registry.Open(ctx)
	return view, err
}

func (h *Handlers) Close(_ context.Context, cmd CloseCommand) (struct{}, error) {
	return struct{}{}, h.Registry.Close(cmd.SessionID)
}

func (h *Handlers) Click(ctx context.Context, cmd ClickCommand) (dto.WidgetView, error) {
	s, err := h.Registry.Get(cmd.SessionID)
	if err != nil {
		return dto.WidgetView{}, err
	}
	_, admin := appauth.AdminFromContext(ctx)
	return s.Click(cmd.Date, admin)
}

func (h *Handlers) Reset(_ context.Context, cmd ResetCommand) (dto.WidgetView, error) {
	s, err := h.Registry.Get(cmd.SessionID)
	if err != nil {
		return dto.WidgetView{}, err
	}
	return s.Reset(), nil
}

func (h *Handlers) Mode(ctx context.Context, cmd ModeCommand) (dto.WidgetView, error) {
	s, err := h.Registry.Get(cmd.SessionID)
	if err != nil {
		return dto.WidgetView{}, err
	}
	_, admin := appauth.AdminFromContext(ctx)
	return s.SetMode(cmd.Mode, admin)
}

func (h *Handlers) Replace(_ context.Context, cmd ReplaceCommand) (dto.WidgetView, error) {
	s, err := h.Registry.Get(cmd.SessionID)
	if err != nil {
		return dto.WidgetView{}, err
	}
	return s.Replace(cmd.Dates)
}

func (h *Handlers) Save(ctx context.Context, cmd SaveCommand) (dto.WidgetView, error) {
	s, err := h.Registry.Get(cmd.SessionID)
	if err != nil {
		return dto.WidgetView{}, err
	}
	view, evs, err := s.Save(ctx)
	if err != nil {
		return dto.WidgetView{}, &SaveError{View: view, Err: err}
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), evs); err != nil {
		return dto.WidgetView{}, err
	}
	return view, nil
}

func (h *Handlers) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

// RegisterCommands wires every widget command onto bus.
func RegisterCommands(bus *commands.InMemoryBus, h *Handlers) {
	commands.Register(bus, h.Open)
	commands.Register(bus, h.Close)
	commands.Register(bus, h.Click)
	commands.Register(bus, h.Reset)
	commands.Register(bus, h.Mode)
	commands.Register(bus, h.Replace)
	commands.Register(bus, h.Save)
}
