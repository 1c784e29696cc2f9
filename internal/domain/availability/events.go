package availability

import (
	"time"
)

// CalendarSaved is recorded after a successful full replace on the backend.
type CalendarSaved struct {
	Property string    `json:"property"`
	Backend  string    `json:"backend"`
	Dates    []string  `json:"dates"`
	At       time.Time `json:"at"`
}

func (e CalendarSaved) EventName() string     { return "calendar.saved" }
func (e CalendarSaved) AggregateID() string   { return e.Property }
func (e CalendarSaved) OccurredAt() time.Time { return e.At }
