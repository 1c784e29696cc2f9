package obs

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// HealthHandlers exposes endpoints for liveness and readiness checks.
type HealthHandlers struct {
	Checks  map[string]Check
	Timeout time.Duration
}

func (h HealthHandlers) Livez(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (h HealthHandlers) Readyz(c *gin.Context) {
	failures := h.Run(c.Request.Context())
	if len(failures) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "checks": failures})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Run executes every check and returns the failures keyed by name.
func (h HealthHandlers) Run(ctx context.Context) map[string]string {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	failures := map[string]string{}
	for name, check := range h.Checks {
		cctx, cancel := context.WithTimeout(ctx, timeout)
		err := check(cctx)
		cancel()
		if err != nil {
			failures[name] = err.Error()
		}
	}
	return failures
}
