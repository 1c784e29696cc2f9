package booking

import (
	"errors"

	"staycal/internal/domain/shared/daterange"
)

var ErrInvalidPolicy = errors.New("booking: policy values must not be negative")

// Policy holds the stay rules of the property. It is fixed at construction.
type Policy struct {
	MinimumNights     int `json:"minimum_nights" yaml:"minimum_nights"`
	AdvanceNoticeDays int `json:"advance_notice_days" yaml:"advance_notice_days"`
}

func NewPolicy(minimumNights, advanceNoticeDays int) (Policy, error) {
	if minimumNights < 0 || advanceNoticeDays < 0 {
		return Policy{}, ErrInvalidPolicy
	}
	return Policy{MinimumNights: minimumNights, AdvanceNoticeDays: advanceNoticeDays}, nil
}

// RequiredNights is the shortest stay that can be committed. A stay always
// covers at least one night even when the configured minimum is zero.
func (p Policy) RequiredNights() int {
	if p.MinimumNights < 1 {
		return 1
	}
	return p.MinimumNights
}

// EarliestBookable is the first day outside the advance-notice window.
func (p Policy) EarliestBookable(today daterange.Date) daterange.Date {
	return today.AddDays(p.AdvanceNoticeDays)
}
