package daterange

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{name: "canonical", input: "2026-03-09", want: NewDate(2026, time.March, 9)},
		{name: "leading space", input: " 2026-12-31", wantErr: true},
		{name: "trailing newline", input: "2026-12-31\n", wantErr: true},
		{name: "leap day", input: "2028-02-29", want: NewDate(2028, time.February, 29)},
		{name: "not zero padded", input: "2026-3-9", wantErr: true},
		{name: "day out of range", input: "2026-02-30", wantErr: true},
		{name: "with time", input: "2026-03-09T10:00:00Z", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDate) {
					t.Fatalf("expected ErrInvalidDate, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDateOfUsesLocalCalendar(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	instant := time.Date(2026, time.June, 9, 23, 30, 0, 0, rome)
	if got := DateOf(instant).String(); got != "2026-06-09" {
		t.Fatalf("expected local day 2026-06-09, got %s", got)
	}
	// 00:30 in Rome is 22:30 UTC on the previous day.
	early := time.Date(2026, time.June, 10, 0, 30, 0, 0, rome)
	if got := DateOf(early).String(); got != "2026-06-10" {
		t.Fatalf("expected local day 2026-06-10, got %s", got)
	}
}

func TestDaysUntilAcrossDST(t *testing.T) {
	start := MustParse("2026-03-28")
	end := MustParse("2026-04-02")
	if got := start.DaysUntil(end); got != 5 {
		t.Fatalf("expected 5 days, got %d", got)
	}
	if got := end.DaysUntil(start); got != -5 {
		t.Fatalf("expected -5 days, got %d", got)
	}
}

func TestDateJSON(t *testing.T) {
	payload := struct {
		Day Date `json:"day"`
	}{Day: MustParse("2026-01-05")}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"day":"2026-01-05"}` {
		t.Fatalf("unexpected json %s", raw)
	}
	var decoded struct {
		Day Date `json:"day"`
	}
	if err := json.Unmarshal([]byte(`{"day":"2026-1-5"}`), &decoded); err == nil {
		t.Fatalf("expected error for unpadded date")
	}
}

func TestMonthHelpers(t *testing.T) {
	first, err := ParseMonth("2028-02")
	if err != nil {
		t.Fatalf("parse month: %v", err)
	}
	if first.String() != "2028-02-01" {
		t.Fatalf("expected first of month, got %s", first)
	}
	if got := first.DaysInMonth(); got != 29 {
		t.Fatalf("expected 29 days in leap february, got %d", got)
	}
	if got := MustParse("2026-12-17").FirstOfMonth().String(); got != "2026-12-01" {
		t.Fatalf("unexpected first of month %s", got)
	}
}

func TestDateRange(t *testing.T) {
	if _, err := New(MustParse("2026-05-10"), MustParse("2026-05-10")); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for empty stay, got %v", err)
	}
	dr, err := New(MustParse("2026-05-10"), MustParse("2026-05-13"))
	if err != nil {
		t.Fatalf("new range: %v", err)
	}
	if dr.Nights() != 3 {
		t.Fatalf("expected 3 nights, got %d", dr.Nights())
	}
	if dr.Interior(MustParse("2026-05-10")) || !dr.Interior(MustParse("2026-05-11")) {
		t.Fatalf("interior must exclude endpoints")
	}
}
