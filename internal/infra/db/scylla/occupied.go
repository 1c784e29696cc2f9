package scylla

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gocql/gocql"

	"staycal/internal/domain/availability"
)

// OccupiedBackend stores a property's occupied days as the clustering rows of
// a single partition.
//
// Write timestamps come from the application clock. Saves from one process
// are strictly ordered, but a writer on another host whose clock runs behind
// can have its rewrite shadowed by an older one.
type OccupiedBackend struct {
	session  *gocql.Session
	property string
	now      func() time.Time

	mu     sync.Mutex
	lastTS int64
}

func NewOccupiedBackend(session *gocql.Session, property string, now func() time.Time) *OccupiedBackend {
	if now == nil {
		now = time.Now
	}
	return &OccupiedBackend{session: session, property: property, now: now}
}

func (b *OccupiedBackend) Name() string { return "scylla" }

func (b *OccupiedBackend) Load(ctx context.Context) ([]string, error) {
	if b.session == nil {
		return nil, errors.New("scylla session not initialized")
	}
	iter := b.session.
		Query(`SELECT day FROM occupied_dates WHERE property = ?`, b.property).
		WithContext(ctx).
		Iter()
	dates := []string{}
	var day string
	for iter.Scan(&day) {
		dates = append(dates, day)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return dates, nil
}

// Save drops the partition and rewrites it in one logged batch. The delete is
// written one microsecond before the inserts so the new rows shadow it.
func (b *OccupiedBackend) Save(ctx context.Context, dates []string) error {
	if b.session == nil {
		return errors.New("scylla session not initialized")
	}
	now := b.now().UTC()
	ts := b.nextTimestamp(now)
	batch := b.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`DELETE FROM occupied_dates USING TIMESTAMP ? WHERE property = ?`, ts, b.property)
	for _, d := range dates {
		batch.Query(`INSERT INTO occupied_dates (property, day, created_at) VALUES (?, ?, ?) USING TIMESTAMP ?`, b.property, d, now, ts+1)
	}
	return b.session.ExecuteBatch(batch)
}

// nextTimestamp returns a write timestamp in microseconds that is above the
// inserts of every earlier save from this backend.
func (b *OccupiedBackend) nextTimestamp(now time.Time) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	ts := now.UnixMicro()
	if ts <= b.lastTS+1 {
		ts = b.lastTS + 2
	}
	b.lastTS = ts
	return ts
}

var _ availability.Backend = (*OccupiedBackend)(nil)
