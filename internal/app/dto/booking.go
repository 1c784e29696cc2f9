package dto

import (
	"time"

	"staycal/internal/domain/booking"
)

type BookingRequestSummary struct {
	ID          string    `json:"id"`
	Property    string    `json:"property"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	CheckIn     string    `json:"check_in"`
	CheckOut    string    `json:"check_out"`
	Nights      int       `json:"nights"`
	Guests      int       `json:"guests"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func MapBookingRequest(req *booking.Request) BookingRequestSummary {
	if req == nil {
		return BookingRequestSummary{}
	}
	name := req.FirstName
	if req.LastName != "" {
		name += " " + req.LastName
	}
	return BookingRequestSummary{
		ID:          req.ID,
		Property:    req.Property,
		Name:        name,
		Email:       req.Email,
		CheckIn:     req.Stay.CheckIn.String(),
		CheckOut:    req.Stay.CheckOut.String(),
		Nights:      req.Nights(),
		Guests:      req.Guests,
		SubmittedAt: req.SubmittedAt,
	}
}
