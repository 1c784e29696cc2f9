package middleware

import (
	"context"

	"staycal/internal/app/commands"
	"staycal/internal/app/queries"
)

type CommandMiddleware func(next commands.Bus) commands.Bus

type QueryMiddleware func(next queries.Bus) queries.Bus

// ChainCommands wraps base so that mws[0] sees each command first.
func ChainCommands(base commands.Bus, mws ...CommandMiddleware) commands.Bus {
	return chain(base, mws)
}

func ChainQueries(base queries.Bus, mws ...QueryMiddleware) queries.Bus {
	return chain(base, mws)
}

func chain[B any, M ~func(B) B](base B, mws []M) B {
	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}

type commandFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f commandFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return f(ctx, cmd)
}

func wrapCommand(next commands.Bus) commandFunc {
	if f, ok := next.(commandFunc); ok {
		return f
	}
	return next.Dispatch
}

type queryFunc func(ctx context.Context, q queries.Query) (any, error)

func (f queryFunc) Ask(ctx context.Context, q queries.Query) (any, error) {
	return f(ctx, q)
}

func wrapQuery(next queries.Bus) queryFunc {
	if f, ok := next.(queryFunc); ok {
		return f
	}
	return next.Ask
}
