package booking

import (
	"errors"
	"strings"
	"time"

	"staycal/internal/domain/shared/daterange"
	"staycal/internal/domain/shared/events"
)

var (
	ErrMinimumStay     = errors.New("booking: minimum stay not met")
	ErrOccupiedInRange = errors.New("booking: occupied dates inside the stay")
	ErrAdvanceNotice   = errors.New("booking: advance notice not met")
	ErrInvalidStay     = errors.New("booking: check-out must be after check-in")
	ErrInvalidGuests   = errors.New("booking: guests count must be positive")
	ErrContactRequired = errors.New("booking: name and email are required")
)

// Violation is a stay rule failure carrying the notice shown to the guest.
type Violation struct {
	Notice Notice
}

func (v *Violation) Error() string { return "booking: " + v.Notice.Message }

func (v *Violation) Is(target error) bool {
	switch v.Notice.Kind {
	case NoticeMinimumStay:
		return target == ErrMinimumStay
	case NoticeOccupiedInRange:
		return target == ErrOccupiedInRange
	case NoticeAdvanceNotice, NoticePastDate:
		return target == ErrAdvanceNotice
	}
	return false
}

// ValidateStay applies the policy to a stay submitted in one piece.
func ValidateStay(stay daterange.DateRange, today daterange.Date, occupied Occupancy, policy Policy) error {
	if err := stay.Validate(); err != nil {
		return ErrInvalidStay
	}
	if stay.CheckIn.Before(today) {
		return &Violation{Notice: pastDateNotice(stay.CheckIn)}
	}
	if stay.CheckIn.Before(policy.EarliestBookable(today)) {
		return &Violation{Notice: advanceNoticeNotice(stay.CheckIn, policy.AdvanceNoticeDays, today.DaysUntil(stay.CheckIn))}
	}
	if nights, required := stay.Nights(), policy.RequiredNights(); nights < required {
		return &Violation{Notice: minimumStayNotice(required, nights)}
	}
	if occupied != nil && occupied.AnyBetween(stay.CheckIn, stay.CheckOut) {
		return &Violation{Notice: occupiedInRangeNotice(stay)}
	}
	return nil
}

// Request is a guest's booking enquiry.
type Request struct {
	ID          string              `json:"id"`
	Property    string              `json:"property"`
	FirstName   string              `json:"first_name"`
	LastName    string              `json:"last_name"`
	Email       string              `json:"email"`
	Phone       string              `json:"phone,omitempty"`
	Stay        daterange.DateRange `json:"stay"`
	Guests      int                 `json:"guests"`
	Message     string              `json:"message,omitempty"`
	SubmittedAt time.Time           `json:"submitted_at"`
	events.EventRecorder
}

type RequestParams struct {
	ID        string
	Property  string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Stay      daterange.DateRange
	Guests    int
	Message   string
	Today     daterange.Date
	Occupied  Occupancy
	Policy    Policy
	Now       time.Time
}

func NewRequest(p RequestParams) (*Request, error) {
	first := strings.TrimSpace(p.FirstName)
	email := strings.TrimSpace(p.Email)
	if first == "" || email == "" {
		return nil, ErrContactRequired
	}
	if p.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if err := ValidateStay(p.Stay, p.Today, p.Occupied, p.Policy); err != nil {
		return nil, err
	}
	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}
	req := &Request{
		ID:          p.ID,
		Property:    p.Property,
		FirstName:   first,
		LastName:    strings.TrimSpace(p.LastName),
		Email:       email,
		Phone:       strings.TrimSpace(p.Phone),
		Stay:        p.Stay,
		Guests:      p.Guests,
		Message:     strings.TrimSpace(p.Message),
		SubmittedAt: now.UTC(),
	}
	req.Record(BookingRequested{
		RequestID: req.ID,
		Property:  req.Property,
		Email:     req.Email,
		Name:      strings.TrimSpace(req.FirstName + " " + req.LastName),
		CheckIn:   req.Stay.CheckIn.String(),
		CheckOut:  req.Stay.CheckOut.String(),
		Nights:    req.Stay.Nights(),
		Guests:    req.Guests,
		At:        req.SubmittedAt,
	})
	return req, nil
}

func (r *Request) Nights() int { return r.Stay.Nights() }
