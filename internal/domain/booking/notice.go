package booking

import (
	"fmt"

	"staycal/internal/domain/shared/daterange"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

type NoticeKind string

const (
	NoticeMinimumStay     NoticeKind = "minimum_stay"
	NoticeOccupiedInRange NoticeKind = "occupied_in_range"
	NoticeAdvanceNotice   NoticeKind = "advance_notice"
	NoticePastDate        NoticeKind = "past_date"
	NoticeDateUnavailable NoticeKind = "date_unavailable"
	NoticeCheckInSelected NoticeKind = "check_in_selected"
	NoticeStaySelected    NoticeKind = "stay_selected"
)

// Notice is user-facing feedback for a click or an operation.
type Notice struct {
	Kind     NoticeKind     `json:"kind"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Date     daterange.Date `json:"date,omitzero"`

	// Required and Actual carry night counts for minimum_stay.
	Required int `json:"required,omitempty"`
	Actual   int `json:"actual,omitempty"`

	// DaysUntil and DaysShort carry the advance-notice arithmetic.
	DaysUntil int `json:"days_until,omitempty"`
	DaysShort int `json:"days_short,omitempty"`
}

func minimumStayNotice(required, actual int) Notice {
	return Notice{
		Kind:     NoticeMinimumStay,
		Severity: SeverityError,
		Message:  fmt.Sprintf("Minimum stay required: %d nights. You selected %d night(s).", required, actual),
		Required: required,
		Actual:   actual,
	}
}

func occupiedInRangeNotice(r daterange.DateRange) Notice {
	return Notice{
		Kind:     NoticeOccupiedInRange,
		Severity: SeverityError,
		Message:  fmt.Sprintf("There are occupied dates between %s and %s.", r.CheckIn, r.CheckOut),
	}
}

func advanceNoticeNotice(d daterange.Date, notice, daysUntil int) Notice {
	return Notice{
		Kind:      NoticeAdvanceNotice,
		Severity:  SeverityInfo,
		Message:   fmt.Sprintf("%d days advance notice required. This date is too soon (%d days away, %d short).", notice, daysUntil, notice-daysUntil),
		Date:      d,
		DaysUntil: daysUntil,
		DaysShort: notice - daysUntil,
	}
}

func pastDateNotice(d daterange.Date) Notice {
	return Notice{Kind: NoticePastDate, Severity: SeverityError, Message: "Date in the past.", Date: d}
}

func unavailableNotice(d daterange.Date) Notice {
	return Notice{Kind: NoticeDateUnavailable, Severity: SeverityError, Message: "This date is not available.", Date: d}
}
