package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	bookingapp "staycal/internal/app/handlers/booking"
	"staycal/internal/domain/shared/daterange"
)

type BookingHandler struct {
	Commands commands.Bus
}

type createBookingRequest struct {
	FirstName string         `json:"first_name" binding:"required"`
	LastName  string         `json:"last_name"`
	Email     string         `json:"email" binding:"required,email"`
	Phone     string         `json:"phone"`
	CheckIn   daterange.Date `json:"check_in"`
	CheckOut  daterange.Date `json:"check_out"`
	Guests    int            `json:"guests" binding:"required,min=1"`
	Message   string         `json:"message"`
}

func (h BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		CheckIn:     req.CheckIn,
		CheckOut:    req.CheckOut,
		Guests:      req.Guests,
		Message:     req.Message,
		Idempotency: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, dto.BookingRequestSummary](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

var _ BookingHTTP = BookingHandler{}
