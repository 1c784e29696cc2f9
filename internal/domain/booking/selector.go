package booking

import (
	"fmt"

	"staycal/internal/domain/shared/daterange"
)

type Phase string

const (
	PhaseEmpty       Phase = "empty"
	PhaseCheckInOnly Phase = "check_in_only"
	PhaseCommitted   Phase = "committed"
)

// State is the selection held by one widget session. CheckOut is set only
// when Phase is PhaseCommitted.
type State struct {
	Phase    Phase          `json:"phase"`
	CheckIn  daterange.Date `json:"check_in,omitzero"`
	CheckOut daterange.Date `json:"check_out,omitzero"`
}

// Range returns the committed stay.
func (s State) Range() (daterange.DateRange, bool) {
	if s.Phase != PhaseCommitted {
		return daterange.DateRange{}, false
	}
	return daterange.DateRange{CheckIn: s.CheckIn, CheckOut: s.CheckOut}, true
}

// Outcome describes what a click did. Toggle asks the caller to flip the
// occupancy of the clicked day; it is only set in admin mode.
type Outcome struct {
	State  State
	Notice *Notice
	Toggle bool
}

// Selector folds day clicks into a stay according to the policy.
type Selector struct {
	policy Policy
	mode   Mode
	state  State
}

func NewSelector(policy Policy) *Selector {
	return &Selector{policy: policy, mode: ModeGuest, state: State{Phase: PhaseEmpty}}
}

func (s *Selector) Policy() Policy { return s.policy }
func (s *Selector) Mode() Mode     { return s.mode }
func (s *Selector) State() State   { return s.state }

// Reset drops any selection.
func (s *Selector) Reset() {
	s.state = State{Phase: PhaseEmpty}
}

// SetMode switches between guest and admin handling and resets the selection.
func (s *Selector) SetMode(mode Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("booking: unknown mode %q", mode)
	}
	s.mode = mode
	s.Reset()
	return nil
}

// HandleClick applies a click on d.
func (s *Selector) HandleClick(d, today daterange.Date, occupied Occupancy) Outcome {
	status := Classify(d, today, occupied, s.policy)
	if s.mode == ModeAdmin {
		if status == StatusPast {
			return s.reject(pastDateNotice(d), false)
		}
		return Outcome{State: s.state, Toggle: true}
	}

	switch status {
	case StatusPast:
		return s.reject(pastDateNotice(d), false)
	case StatusTooSoon:
		return s.reject(advanceNoticeNotice(d, s.policy.AdvanceNoticeDays, today.DaysUntil(d)), false)
	case StatusOccupied:
		return s.reject(unavailableNotice(d), false)
	}

	if s.state.Phase != PhaseCheckInOnly {
		s.state = State{Phase: PhaseCheckInOnly, CheckIn: d}
		return Outcome{State: s.state, Notice: &Notice{
			Kind:     NoticeCheckInSelected,
			Severity: SeverityInfo,
			Message:  "Check-in selected. Choose the check-out date.",
			Date:     d,
		}}
	}

	checkIn, checkOut := s.state.CheckIn, d
	if d.Before(checkIn) {
		checkIn, checkOut = d, s.state.CheckIn
	}
	nights := checkIn.DaysUntil(checkOut)
	stay, err := daterange.New(checkIn, checkOut)
	if required := s.policy.RequiredNights(); err != nil || nights < required {
		return s.reject(minimumStayNotice(required, nights), true)
	}
	if occupied != nil && occupied.AnyBetween(checkIn, checkOut) {
		return s.reject(occupiedInRangeNotice(stay), true)
	}
	s.state = State{Phase: PhaseCommitted, CheckIn: checkIn, CheckOut: checkOut}
	return Outcome{State: s.state, Notice: &Notice{
		Kind:     NoticeStaySelected,
		Severity: SeveritySuccess,
		Message:  fmt.Sprintf("Stay selected: %d nights from %s to %s.", nights, checkIn, checkOut),
		Actual:   nights,
	}}
}

func (s *Selector) reject(n Notice, reset bool) Outcome {
	if reset {
		s.Reset()
	}
	return Outcome{State: s.state, Notice: &n}
}
