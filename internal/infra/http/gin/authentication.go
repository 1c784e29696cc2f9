package ginserver

import (
	"errors"
	"log/slog"
	"strings"

	gin "github.com/gin-gonic/gin"

	"staycal/internal/app/services/auth"
	domainauth "staycal/internal/domain/auth"
)

const tokenContextKey = "staycal.token"

// AuthMiddleware attaches a verified admin session to the request context
// when a valid bearer token is presented. Requests without one continue as
// guests; admin-only commands are refused further down the bus.
type AuthMiddleware struct {
	Service *auth.Service
	Logger  *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Service == nil {
		c.Next()
		return
	}
	session, err := m.Service.ResolveToken(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, domainauth.ErrSessionNotFound) && m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	c.Request = c.Request.WithContext(auth.ContextWithAdmin(c.Request.Context(), session))
	c.Set(tokenContextKey, token)
	c.Next()
}

func currentToken(c *gin.Context) string {
	if token := c.GetString(tokenContextKey); token != "" {
		return token
	}
	return extractBearerToken(c.GetHeader("Authorization"))
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
