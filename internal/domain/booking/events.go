package booking

import "time"

type BookingRequested struct {
	RequestID string    `json:"request_id"`
	Property  string    `json:"property"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CheckIn   string    `json:"check_in"`
	CheckOut  string    `json:"check_out"`
	Nights    int       `json:"nights"`
	Guests    int       `json:"guests"`
	At        time.Time `json:"at"`
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return e.RequestID }
func (e BookingRequested) OccurredAt() time.Time { return e.At }
