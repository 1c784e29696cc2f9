package booking

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	"staycal/internal/app/outbox"
	"staycal/internal/clock"
	"staycal/internal/domain/availability"
	domainbooking "staycal/internal/domain/booking"
	"staycal/internal/domain/shared/daterange"
)

const RequestBookingKey = "booking.request"

type RequestBookingCommand struct {
	FirstName string `validate:"required,max=100"`
	LastName  string `validate:"max=100"`
	Email     string `validate:"required,email"`
	Phone     string `validate:"max=40"`
	CheckIn   daterange.Date
	CheckOut  daterange.Date
	Guests    int    `validate:"gte=1,lte=20"`
	Message   string `validate:"max=2000"`
	// Idempotency is the client supplied Idempotency-Key header, if any.
	Idempotency string `validate:"max=128"`
}

func (RequestBookingCommand) Key() string              { return RequestBookingKey }
func (c RequestBookingCommand) IdempotencyKey() string { return c.Idempotency }
func (RequestBookingCommand) ResultPrototype() any     { return &dto.BookingRequestSummary{} }

type RequestBookingHandler struct {
	Backend  availability.Backend
	Policy   domainbooking.Policy
	Property string
	Clock    clock.Clock
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (dto.BookingRequestSummary, error) {
	now := h.Clock.Now()
	store := availability.NewStore(h.Backend, availability.StoreOptions{Property: h.Property, Logger: h.Logger})
	// A failed load is already logged by the store; the enquiry is still
	// accepted and the owner confirms availability by hand.
	occupied, _ := store.Load(ctx)

	stay, err := daterange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return dto.BookingRequestSummary{}, domainbooking.ErrInvalidStay
	}
	req, err := domainbooking.NewRequest(domainbooking.RequestParams{
		ID:        uuid.NewString(),
		Property:  h.Property,
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
		Email:     cmd.Email,
		Phone:     cmd.Phone,
		Stay:      stay,
		Guests:    cmd.Guests,
		Message:   cmd.Message,
		Today:     daterange.DateOf(now),
		Occupied:  occupied,
		Policy:    h.Policy,
		Now:       now,
	})
	if err != nil {
		return dto.BookingRequestSummary{}, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), req.DrainEvents()); err != nil {
		return dto.BookingRequestSummary{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking request received", "request_id", req.ID, "check_in", req.Stay.CheckIn, "nights", req.Nights())
	}
	return dto.MapBookingRequest(req), nil
}

func (h *RequestBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

// Register wires booking requests onto bus.
func Register(bus *commands.InMemoryBus, h *RequestBookingHandler) {
	commands.Register(bus, h.Handle)
}
