package dto

import "time"

type AdminLogin struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CalendarExport keeps the field names of the downloadable backup file.
type CalendarExport struct {
	OccupiedDates []string  `json:"occupiedDates"`
	ExportDate    time.Time `json:"exportDate"`
	Property      string    `json:"property"`
}

type OccupiedList struct {
	Dates []string `json:"dates"`
	Count int      `json:"count"`
}

type PublishResult struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}
