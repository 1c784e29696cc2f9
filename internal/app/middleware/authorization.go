package middleware

import (
	"context"
	"errors"

	"staycal/internal/app/commands"
	"staycal/internal/app/queries"
)

// ErrAdminRequired rejects admin-only messages sent without an admin session.
var ErrAdminRequired = errors.New("middleware: admin session required")

// AdminOnly is implemented by commands and queries that edit or reveal the
// occupied calendar.
type AdminOnly interface {
	RequiresAdmin() bool
}

// AdminCheck reports whether ctx carries a verified admin session.
type AdminCheck func(ctx context.Context) bool

func requireAdmin(ctx context.Context, isAdmin AdminCheck, message any) error {
	guarded, ok := message.(AdminOnly)
	if !ok || !guarded.RequiresAdmin() || isAdmin(ctx) {
		return nil
	}
	return ErrAdminRequired
}

// AdminGate stops admin-only commands before they reach a handler.
func AdminGate(isAdmin AdminCheck) CommandMiddleware {
	if isAdmin == nil {
		panic("middleware: admin check required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := requireAdmin(ctx, isAdmin, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryAdminGate(isAdmin AdminCheck) QueryMiddleware {
	if isAdmin == nil {
		panic("middleware: admin check required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := requireAdmin(ctx, isAdmin, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}
