package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staycal/internal/app/commands"
	adminapp "staycal/internal/app/handlers/admin"
	widgetsapp "staycal/internal/app/handlers/widgets"
	"staycal/internal/app/middleware"
	"staycal/internal/app/queries"
	"staycal/internal/app/services/auth"
	"staycal/internal/app/widget"
	"staycal/internal/domain/availability"
	"staycal/internal/domain/booking"
)

// writeError maps application errors onto HTTP statuses. A failed save
// still returns the widget view so the client keeps its unsaved edits.
func writeError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	var saveErr *widgetsapp.SaveError
	if errors.As(err, &saveErr) {
		body["view"] = saveErr.View
	}
	c.JSON(status, body)
}

func errorResponse(err error) (int, gin.H) {
	var violation *booking.Violation
	switch {
	case errors.As(err, &violation):
		return http.StatusUnprocessableEntity, gin.H{"error": violation.Notice.Message, "notice": violation.Notice}
	case errors.Is(err, widget.ErrSessionNotFound):
		return http.StatusNotFound, gin.H{"error": "widget session not found"}
	case errors.Is(err, auth.ErrInvalidSecret):
		return http.StatusUnauthorized, gin.H{"error": "invalid secret"}
	case errors.Is(err, middleware.ErrAdminRequired), errors.Is(err, widget.ErrAdminRequired):
		return http.StatusUnauthorized, gin.H{"error": "admin session required"}
	case errors.Is(err, middleware.ErrValidation),
		errors.Is(err, availability.ErrInvalidDate),
		errors.Is(err, booking.ErrInvalidStay),
		errors.Is(err, booking.ErrInvalidGuests),
		errors.Is(err, booking.ErrContactRequired),
		errors.Is(err, commands.ErrInvalidCommand),
		errors.Is(err, queries.ErrInvalidQuery):
		return http.StatusBadRequest, gin.H{"error": err.Error()}
	case errors.Is(err, availability.ErrReadOnlyBackend):
		return http.StatusConflict, gin.H{"error": "calendar backend is read-only"}
	case errors.Is(err, availability.ErrNotLoaded):
		return http.StatusConflict, gin.H{"error": "calendar not loaded, reopen the widget before saving"}
	case errors.Is(err, availability.ErrMalformedPayload), availability.IsTransport(err):
		return http.StatusBadGateway, gin.H{"error": err.Error()}
	case errors.Is(err, widget.ErrTooManySessions):
		return http.StatusServiceUnavailable, gin.H{"error": "too many open widgets, retry later"}
	case errors.Is(err, adminapp.ErrPublisherMissing), errors.Is(err, availability.ErrNoBackend):
		return http.StatusServiceUnavailable, gin.H{"error": err.Error()}
	default:
		return http.StatusInternalServerError, gin.H{"error": "internal error"}
	}
}
