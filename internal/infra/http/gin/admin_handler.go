package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	adminapp "staycal/internal/app/handlers/admin"
)

type AdminHandler struct {
	Commands commands.Bus
}

type loginRequest struct {
	Secret string `json:"secret" binding:"required"`
}

func (h AdminHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "secret is required"})
		return
	}
	res, err := commands.Dispatch[adminapp.LoginCommand, dto.AdminLogin](c.Request.Context(), h.Commands, adminapp.LoginCommand{Secret: req.Secret})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h AdminHandler) Logout(c *gin.Context) {
	cmd := adminapp.LogoutCommand{Token: currentToken(c)}
	if _, err := commands.Dispatch[adminapp.LogoutCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h AdminHandler) Publish(c *gin.Context) {
	res, err := commands.Dispatch[adminapp.PublishCommand, dto.PublishResult](c.Request.Context(), h.Commands, adminapp.PublishCommand{})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

var _ AdminHTTP = AdminHandler{}
