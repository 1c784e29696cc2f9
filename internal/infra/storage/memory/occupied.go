package memory

import (
	"context"
	"sync"

	"staycal/internal/domain/availability"
)

// OccupiedBackend keeps the occupied dates in process memory. Contents are
// lost on restart.
type OccupiedBackend struct {
	mu    sync.RWMutex
	dates []string
}

func NewOccupiedBackend(seed ...string) *OccupiedBackend {
	return &OccupiedBackend{dates: append([]string(nil), seed...)}
}

func (b *OccupiedBackend) Name() string { return "memory" }

func (b *OccupiedBackend) Load(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.dates...), nil
}

func (b *OccupiedBackend) Save(ctx context.Context, dates []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dates = append([]string(nil), dates...)
	return nil
}

var _ availability.Backend = (*OccupiedBackend)(nil)
