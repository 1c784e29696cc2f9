package booking

import (
	"time"

	"staycal/internal/domain/shared/daterange"
)

// Occupancy answers membership questions about occupied days.
type Occupancy interface {
	Has(d daterange.Date) bool
	AnyBetween(from, to daterange.Date) bool
}

type DayStatus string

const (
	StatusPast      DayStatus = "past"
	StatusTooSoon   DayStatus = "too_soon"
	StatusOccupied  DayStatus = "occupied"
	StatusAvailable DayStatus = "available"
)

// Tag is a presentational overlay; tags never change selectability.
type Tag string

const (
	TagToday         Tag = "today"
	TagSelectedStart Tag = "selected_start"
	TagSelectedEnd   Tag = "selected_end"
	TagInRange       Tag = "in_range"
)

type Mode string

const (
	ModeGuest Mode = "guest"
	ModeAdmin Mode = "admin"
)

func (m Mode) Valid() bool {
	return m == ModeGuest || m == ModeAdmin
}

// Classify decides the status of d. It depends only on its arguments.
func Classify(d, today daterange.Date, occupied Occupancy, policy Policy) DayStatus {
	switch {
	case d.Before(today):
		return StatusPast
	case d.Before(policy.EarliestBookable(today)):
		return StatusTooSoon
	case occupied != nil && occupied.Has(d):
		return StatusOccupied
	default:
		return StatusAvailable
	}
}

// Selectable reports whether a day with the given status accepts clicks.
func Selectable(status DayStatus, mode Mode) bool {
	if mode == ModeAdmin {
		return status != StatusPast
	}
	return status == StatusAvailable
}

// Day is one rendered calendar cell.
type Day struct {
	Date       daterange.Date `json:"date"`
	Number     int            `json:"number"`
	Status     DayStatus      `json:"status"`
	Tags       []Tag          `json:"tags,omitempty"`
	Selectable bool           `json:"selectable"`
}

// MonthView is a Monday-first month grid.
type MonthView struct {
	Year          int        `json:"year"`
	Month         time.Month `json:"month"`
	LeadingBlanks int        `json:"leading_blanks"`
	Days          []Day      `json:"days"`
}

// Overlay returns the presentational tags of d for the given state.
func Overlay(d, today daterange.Date, state State) []Tag {
	var tags []Tag
	if d.Equal(today) {
		tags = append(tags, TagToday)
	}
	if state.Phase == PhaseCheckInOnly && d.Equal(state.CheckIn) {
		return append(tags, TagSelectedStart)
	}
	stay, ok := state.Range()
	if !ok {
		return tags
	}
	switch {
	case d.Equal(stay.CheckIn):
		tags = append(tags, TagSelectedStart)
	case d.Equal(stay.CheckOut):
		tags = append(tags, TagSelectedEnd)
	case stay.Interior(d):
		tags = append(tags, TagInRange)
	}
	return tags
}

// BuildMonth classifies every day of the month containing anchor.
func BuildMonth(anchor, today daterange.Date, occupied Occupancy, policy Policy, state State, mode Mode) MonthView {
	first := anchor.FirstOfMonth()
	view := MonthView{
		Year:          first.Year(),
		Month:         first.Month(),
		LeadingBlanks: (int(first.Weekday()) + 6) % 7,
		Days:          make([]Day, 0, first.DaysInMonth()),
	}
	for d := first; d.Month() == first.Month(); d = d.AddDays(1) {
		status := Classify(d, today, occupied, policy)
		view.Days = append(view.Days, Day{
			Date:       d,
			Number:     d.Day(),
			Status:     status,
			Tags:       Overlay(d, today, state),
			Selectable: Selectable(status, mode),
		})
	}
	return view
}
