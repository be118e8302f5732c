package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-shift-api/internal/dto"
	"github.com/noah-isme/tutor-shift-api/internal/service"
	"github.com/noah-isme/tutor-shift-api/pkg/response"
)

// CalendarHandler exposes closures and fixed calendar events.
type CalendarHandler struct {
	calendar *service.CalendarService
}

// NewCalendarHandler constructs a CalendarHandler.
func NewCalendarHandler(calendar *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendar: calendar}
}

// List godoc
// @Summary List calendar events
// @Tags Calendar
// @Produce json
// @Param from query string false "From date"
// @Param to query string false "To date"
// @Param all query bool false "Include intensive markers"
// @Success 200 {object} response.Envelope
// @Router /calendar/events [get]
func (h *CalendarHandler) List(c *gin.Context) {
	from, ok := queryDate(c, "from")
	if !ok {
		return
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return
	}
	events, err := h.calendar.List(c.Request.Context(), from, to, c.Query("all") != "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// DeclareClosure godoc
// @Summary Close the school on a date and displace its lessons
// @Tags Calendar
// @Accept json
// @Produce json
// @Param payload body dto.DeclareClosureRequest true "Closure payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /calendar/closures [post]
func (h *CalendarHandler) DeclareClosure(c *gin.Context) {
	var req dto.DeclareClosureRequest
	if !bindJSON(c, &req, "invalid closure payload") {
		return
	}
	event, err := h.calendar.DeclareClosure(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// RevokeClosure godoc
// @Summary Reopen a closed date and rebuild its grid
// @Tags Calendar
// @Produce json
// @Param id path int true "Closure event ID"
// @Success 200 {object} response.Envelope
// @Router /calendar/closures/{id} [delete]
func (h *CalendarHandler) RevokeClosure(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.calendar.RevokeClosure(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
