package auth

import (
	"context"

	domainauth "staycal/internal/domain/auth"
)

type adminKey struct{}

// ContextWithAdmin marks ctx as carrying a verified admin session.
func ContextWithAdmin(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, adminKey{}, session)
}

func AdminFromContext(ctx context.Context) (*domainauth.Session, bool) {
	session, ok := ctx.Value(adminKey{}).(*domainauth.Session)
	return session, ok && session != nil
}

// IsAdmin reports whether ctx carries a verified admin session.
func IsAdmin(ctx context.Context) bool {
	_, ok := AdminFromContext(ctx)
	return ok
}
