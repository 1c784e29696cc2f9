package clock

import (
	"testing"
	"time"
)

func TestSystemClockUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := NewSystem(loc).Now()
	if now.Location() != loc {
		t.Fatalf("expected clock in %s, got %s", loc, now.Location())
	}
	if NewSystem(nil).Now().Location() != time.UTC {
		t.Fatalf("nil location must fall back to UTC")
	}
}

func TestManualClock(t *testing.T) {
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c := NewFixed(start)
	if !c.Now().Equal(start) {
		t.Fatalf("unexpected now %s", c.Now())
	}
	if got := c.Advance(36 * time.Hour); !got.Equal(start.Add(36 * time.Hour)) {
		t.Fatalf("unexpected advance result %s", got)
	}
	c.Set(start)
	if !c.Now().Equal(start) {
		t.Fatalf("set did not move the clock")
	}
}
