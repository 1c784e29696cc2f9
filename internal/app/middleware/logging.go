package middleware

import (
	"context"
	"log/slog"
	"time"

	"staycal/internal/app/commands"
	"staycal/internal/app/queries"
)

// Logging logs each command with its duration. Failures log at warn level;
// the error itself still travels back to the caller.
func Logging(logger *slog.Logger) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		if logger == nil {
			return nextFn
		}
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			if err != nil {
				logger.Warn("command failed", "command", cmd.Key(), "duration", time.Since(start), "error", err)
				return res, err
			}
			logger.Debug("command handled", "command", cmd.Key(), "duration", time.Since(start))
			return res, nil
		})
	}
}

func QueryLogging(logger *slog.Logger) QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		if logger == nil {
			return nextFn
		}
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, q)
			if err != nil {
				logger.Warn("query failed", "query", q.Key(), "duration", time.Since(start), "error", err)
			}
			return res, err
		})
	}
}
