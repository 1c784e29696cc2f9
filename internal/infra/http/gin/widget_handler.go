package ginserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	widgetsapp "staycal/internal/app/handlers/widgets"
	"staycal/internal/app/queries"
	"staycal/internal/domain/booking"
	"staycal/internal/domain/shared/daterange"
)

type WidgetHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type clickRequest struct {
	Date daterange.Date `json:"date"`
}

type modeRequest struct {
	Mode booking.Mode `json:"mode" binding:"required,oneof=guest admin"`
}

type replaceOccupiedRequest struct {
	Dates []daterange.Date `json:"dates" binding:"required"`
}

func (h WidgetHandler) Open(c *gin.Context) {
	view, err := commands.Dispatch[widgetsapp.OpenCommand, dto.WidgetView](c.Request.Context(), h.Commands, widgetsapp.OpenCommand{})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Location", "/api/v1/widgets/"+view.SessionID)
	c.JSON(http.StatusCreated, view)
}

func (h WidgetHandler) View(c *gin.Context) {
	query := widgetsapp.ViewQuery{SessionID: c.Param("id")}
	if raw := strings.TrimSpace(c.Query("month")); raw != "" {
		month, err := daterange.ParseMonth(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "month must be YYYY-MM"})
			return
		}
		query.Month = month
	}
	view, err := queries.Ask[widgetsapp.ViewQuery, dto.WidgetView](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h WidgetHandler) Close(c *gin.Context) {
	cmd := widgetsapp.CloseCommand{SessionID: c.Param("id")}
	if _, err := commands.Dispatch[widgetsapp.CloseCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h WidgetHandler) Click(c *gin.Context) {
	var req clickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := widgetsapp.ClickCommand{SessionID: c.Param("id"), Date: req.Date}
	h.dispatchView(c, cmd)
}

func (h WidgetHandler) Reset(c *gin.Context) {
	h.dispatchView(c, widgetsapp.ResetCommand{SessionID: c.Param("id")})
}

func (h WidgetHandler) Mode(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.dispatchView(c, widgetsapp.ModeCommand{SessionID: c.Param("id"), Mode: req.Mode})
}

func (h WidgetHandler) Selection(c *gin.Context) {
	query := widgetsapp.SelectionQuery{SessionID: c.Param("id")}
	sel, err := queries.Ask[widgetsapp.SelectionQuery, dto.Selection](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sel)
}

func (h WidgetHandler) Occupied(c *gin.Context) {
	query := widgetsapp.OccupiedQuery{SessionID: c.Param("id")}
	list, err := queries.Ask[widgetsapp.OccupiedQuery, dto.OccupiedList](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h WidgetHandler) ReplaceOccupied(c *gin.Context) {
	var req replaceOccupiedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.dispatchView(c, widgetsapp.ReplaceCommand{SessionID: c.Param("id"), Dates: req.Dates})
}

func (h WidgetHandler) Save(c *gin.Context) {
	h.dispatchView(c, widgetsapp.SaveCommand{SessionID: c.Param("id")})
}

// Export returns the backup document; ?download=true adds an attachment
// filename stamped with the export day.
func (h WidgetHandler) Export(c *gin.Context) {
	query := widgetsapp.ExportQuery{SessionID: c.Param("id")}
	export, err := queries.Ask[widgetsapp.ExportQuery, dto.CalendarExport](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	if download, _ := strconv.ParseBool(c.Query("download")); download {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="calendar-%s.json"`, export.ExportDate.Format("2006-01-02")))
	}
	c.JSON(http.StatusOK, export)
}

func (h WidgetHandler) dispatchView(c *gin.Context, cmd commands.Command) {
	res, err := h.Commands.Dispatch(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	view, ok := res.(dto.WidgetView)
	if !ok {
		writeError(c, commands.ErrResultType)
		return
	}
	c.JSON(http.StatusOK, view)
}

var _ WidgetHTTP = WidgetHandler{}
