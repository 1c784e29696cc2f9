package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrHandlerNotFound = errors.New("commands: no handler registered")
	ErrInvalidCommand  = errors.New("commands: command does not match handler")
	ErrResultType      = errors.New("commands: unexpected result type")
	ErrNilBus          = errors.New("commands: nil bus")
)

// Command is a write intent. Key names the route and must not depend on field
// values, since routes are resolved from the zero value at registration.
type Command interface {
	Key() string
}

// Handler is implemented by command handler structs.
type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// Bus dispatches commands, possibly through a middleware chain.
type Bus interface {
	Dispatch(ctx context.Context, cmd Command) (any, error)
}

type route func(ctx context.Context, cmd Command) (any, error)

// InMemoryBus routes commands by key. Routes are added at startup and read
// concurrently by HTTP handlers afterwards.
type InMemoryBus struct {
	mu     sync.RWMutex
	routes map[string]route
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: make(map[string]route)}
}

// Register routes commands of type C to handle under C's key. Registering
// the same key twice is a wiring bug and panics.
func Register[C Command, R any](bus *InMemoryBus, handle func(context.Context, C) (R, error)) {
	if bus == nil || handle == nil {
		panic("commands: nil bus or handler")
	}
	var zero C
	key := zero.Key()
	if key == "" {
		panic(fmt.Sprintf("commands: %T has an empty key", zero))
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if _, exists := bus.routes[key]; exists {
		panic("commands: duplicate registration for " + key)
	}
	bus.routes[key] = func(ctx context.Context, raw Command) (any, error) {
		cmd, ok := raw.(C)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrInvalidCommand, key, raw)
		}
		return handle(ctx, cmd)
	}
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	if cmd == nil {
		return nil, ErrInvalidCommand
	}
	b.mu.RLock()
	r, ok := b.routes[cmd.Key()]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, cmd.Key())
	}
	return r(ctx, cmd)
}

// Dispatch sends cmd through bus and asserts the handler's result type.
func Dispatch[C Command, R any](ctx context.Context, bus Bus, cmd C) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Dispatch(ctx, cmd)
	if err != nil || res == nil {
		return zero, err
	}
	out, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T", ErrResultType, cmd.Key(), res)
	}
	return out, nil
}
