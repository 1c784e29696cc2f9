package daterange

import (
	"errors"
)

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
)

// DateRange represents a stay as the half-open interval [checkIn, checkOut).
type DateRange struct {
	CheckIn  Date `json:"check_in"`
	CheckOut Date `json:"check_out"`
}

func New(checkIn, checkOut Date) (DateRange, error) {
	dr := DateRange{CheckIn: checkIn, CheckOut: checkOut}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) Nights() int {
	return dr.CheckIn.DaysUntil(dr.CheckOut)
}

// Interior reports whether d lies strictly between check-in and check-out.
func (dr DateRange) Interior(d Date) bool {
	return d.After(dr.CheckIn) && d.Before(dr.CheckOut)
}
