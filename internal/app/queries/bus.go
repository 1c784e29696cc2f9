package queries

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrHandlerNotFound = errors.New("queries: no handler registered")
	ErrInvalidQuery    = errors.New("queries: query does not match handler")
	ErrResultType      = errors.New("queries: unexpected result type")
	ErrNilBus          = errors.New("queries: nil bus")
)

// Query is a read request routed by Key, which must not depend on field values.
type Query interface {
	Key() string
}

type Bus interface {
	Ask(ctx context.Context, query Query) (any, error)
}

type route func(ctx context.Context, q Query) (any, error)

type InMemoryBus struct {
	mu     sync.RWMutex
	routes map[string]route
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: make(map[string]route)}
}

// Register routes queries of type Q to handle under Q's key.
func Register[Q Query, R any](bus *InMemoryBus, handle func(context.Context, Q) (R, error)) {
	if bus == nil || handle == nil {
		panic("queries: nil bus or handler")
	}
	var zero Q
	key := zero.Key()
	if key == "" {
		panic(fmt.Sprintf("queries: %T has an empty key", zero))
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if _, exists := bus.routes[key]; exists {
		panic("queries: duplicate registration for " + key)
	}
	bus.routes[key] = func(ctx context.Context, raw Query) (any, error) {
		q, ok := raw.(Q)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrInvalidQuery, key, raw)
		}
		return handle(ctx, q)
	}
}

func (b *InMemoryBus) Ask(ctx context.Context, query Query) (any, error) {
	if query == nil {
		return nil, ErrInvalidQuery
	}
	b.mu.RLock()
	r, ok := b.routes[query.Key()]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, query.Key())
	}
	return r(ctx, query)
}

// Ask runs query through bus and asserts the result type.
func Ask[Q Query, R any](ctx context.Context, bus Bus, query Q) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Ask(ctx, query)
	if err != nil || res == nil {
		return zero, err
	}
	out, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T", ErrResultType, query.Key(), res)
	}
	return out, nil
}
