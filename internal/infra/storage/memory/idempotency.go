package memory

import (
	"context"
	"sync"
	"time"

	"staycal/internal/app/middleware"
)

// IdempotencyStore keeps replayable command results for
// middleware.IdempotencyTTL, matching the TTL index of the Mongo store.
// Expired records are dropped lazily on access.
type IdempotencyStore struct {
	now func() time.Time

	mu      sync.Mutex
	records map[string]middleware.IdempotencyRecord
}

func NewIdempotencyStore(now func() time.Time) *IdempotencyStore {
	if now == nil {
		now = time.Now
	}
	return &IdempotencyStore{now: now, records: make(map[string]middleware.IdempotencyRecord)}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if ok && s.expired(rec) {
		delete(s.records, key)
		return middleware.IdempotencyRecord{}, false, nil
	}
	return rec, ok, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, old := range s.records {
		if s.expired(old) {
			delete(s.records, key)
		}
	}
	s.records[rec.Key] = rec
	return nil
}

// Len reports how many records are held, including expired ones not yet swept.
func (s *IdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *IdempotencyStore) expired(rec middleware.IdempotencyRecord) bool {
	return s.now().Sub(rec.OccurredAt) >= middleware.IdempotencyTTL
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
