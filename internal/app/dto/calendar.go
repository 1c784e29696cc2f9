package dto

import (
	"staycal/internal/domain/booking"
	"staycal/internal/domain/shared/daterange"
)

type Selection struct {
	Phase    booking.Phase  `json:"phase"`
	CheckIn  daterange.Date `json:"check_in,omitzero"`
	CheckOut daterange.Date `json:"check_out,omitzero"`
	Nights   int            `json:"nights,omitempty"`
}

// WidgetView is everything a client needs to render one calendar widget.
type WidgetView struct {
	SessionID     string            `json:"session_id"`
	Property      string            `json:"property"`
	Mode          booking.Mode      `json:"mode"`
	Today         daterange.Date    `json:"today"`
	Policy        booking.Policy    `json:"policy"`
	Selection     Selection         `json:"selection"`
	Month         booking.MonthView `json:"month"`
	Notices       []booking.Notice  `json:"notices"`
	Dirty         bool              `json:"dirty"`
	Backend       string            `json:"backend"`
	OccupiedCount int               `json:"occupied_count"`
}

func MapSelection(state booking.State) Selection {
	sel := Selection{Phase: state.Phase, CheckIn: state.CheckIn, CheckOut: state.CheckOut}
	if stay, ok := state.Range(); ok {
		sel.Nights = stay.Nights()
	}
	return sel
}
