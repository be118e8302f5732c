package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-shift-api/internal/dto"
	"github.com/noah-isme/tutor-shift-api/internal/middleware"
	"github.com/noah-isme/tutor-shift-api/internal/models"
	appErrors "github.com/noah-isme/tutor-shift-api/pkg/errors"
	"github.com/noah-isme/tutor-shift-api/pkg/response"
)

type dailyGridService interface {
	GetDay(ctx context.Context, date time.Time) (*dto.DailyGridView, error)
	SaveDay(ctx context.Context, date time.Time, req dto.SaveSlotsRequest) (*dto.DailyGridView, error)
	Reload(ctx context.Context, date time.Time) (dto.EnsureResult, error)
	ReloadWeek(ctx context.Context, date time.Time) ([]dto.EnsureResult, error)
	ResetDay(ctx context.Context, date time.Time) (int, error)
}

type rescheduleService interface {
	MarkAbsent(ctx context.Context, occurrenceID int64, unauthorized bool) (*models.LessonOccurrence, error)
	Reschedule(ctx context.Context, req dto.RescheduleRequest) (*models.LessonOccurrence, error)
	AddTeacherToShift(ctx context.Context, req dto.AddTeacherShiftRequest) (*models.TeacherShiftOccurrence, error)
	RemoveTeacherFromShift(ctx context.Context, cellID int64) error
}

type reportedMarker interface {
	MarkReported(ctx context.Context, occurrenceID int64, reported bool) error
}

// ShiftHandler exposes the daily shift grid and the per-day lesson operations.
type ShiftHandler struct {
	grids      dailyGridService
	reschedule rescheduleService
	reported   reportedMarker
}

// NewShiftHandler constructs a ShiftHandler.
func NewShiftHandler(grids dailyGridService, reschedule rescheduleService, reported reportedMarker) *ShiftHandler {
	return &ShiftHandler{grids: grids, reschedule: reschedule, reported: reported}
}

// GetDay godoc
// @Summary Get the daily grid, generating it on first access
// @Tags Shifts
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /shifts/{date} [get]
func (h *ShiftHandler) GetDay(c *gin.Context) {
	date, ok := pathDate(c)
	if !ok {
		return
	}
	view, err := h.grids.GetDay(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil, middleware.ExtractMeta(c))
}

// SaveDay godoc
// @Summary Save operator edits of a daily grid
// @Tags Shifts
// @Accept json
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param payload body dto.SaveSlotsRequest true "Cell-id + slot pairs"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /shifts/{date} [put]
func (h *ShiftHandler) SaveDay(c *gin.Context) {
	date, ok := pathDate(c)
	if !ok {
		return
	}
	var req dto.SaveSlotsRequest
	if !bindJSON(c, &req, "invalid grid payload") {
		return
	}
	view, err := h.grids.SaveDay(c.Request.Context(), date, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Reload godoc
// @Summary Regenerate and repair a daily grid
// @Tags Shifts
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /shifts/{date}/reload [post]
func (h *ShiftHandler) Reload(c *gin.Context) {
	date, ok := pathDate(c)
	if !ok {
		return
	}
	result, err := h.grids.Reload(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ReloadWeek godoc
// @Summary Regenerate and repair every school day of the week containing date
// @Tags Shifts
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /shifts/{date}/reload-week [post]
func (h *ShiftHandler) ReloadWeek(c *gin.Context) {
	date, ok := pathDate(c)
	if !ok {
		return
	}
	results, err := h.grids.ReloadWeek(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// ResetDay godoc
// @Summary Drop the daily grid of a date
// @Tags Shifts
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /shifts/{date} [delete]
func (h *ShiftHandler) ResetDay(c *gin.Context) {
	date, ok := pathDate(c)
	if !ok {
		return
	}
	deleted, err := h.grids.ResetDay(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"cells_deleted": deleted}, nil)
}

// Reschedule godoc
// @Summary Place a makeup, temporary or intensive lesson into a daily cell
// @Tags Shifts
// @Accept json
// @Produce json
// @Param payload body dto.RescheduleRequest true "Target cell and lesson source"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /shifts/lessons [post]
func (h *ShiftHandler) Reschedule(c *gin.Context) {
	var req dto.RescheduleRequest
	if !bindJSON(c, &req, "invalid reschedule payload") {
		return
	}
	occurrence, err := h.reschedule.Reschedule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, occurrence)
}

// MarkAbsent godoc
// @Summary Mark a lesson occurrence absent
// @Tags Shifts
// @Accept json
// @Produce json
// @Param id path int true "Occurrence ID"
// @Param payload body dto.MarkAbsentRequest false "Absence flags"
// @Success 200 {object} response.Envelope
// @Router /occurrences/{id}/absence [post]
func (h *ShiftHandler) MarkAbsent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.MarkAbsentRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "invalid absence payload") {
		return
	}
	occurrence, err := h.reschedule.MarkAbsent(c.Request.Context(), id, req.Unauthorized)
	if err != nil {
		response.Error(c, err)
		return
	}
	if occurrence == nil {
		response.NoContent(c)
		return
	}
	response.JSON(c, http.StatusOK, occurrence, nil)
}

// SetReported godoc
// @Summary Toggle the billing flag of an occurrence
// @Tags Shifts
// @Accept json
// @Param id path int true "Occurrence ID"
// @Param payload body dto.SetReportedRequest true "Reported flag"
// @Success 204
// @Router /occurrences/{id}/reported [patch]
func (h *ShiftHandler) SetReported(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.SetReportedRequest
	if !bindJSON(c, &req, "invalid reported payload") {
		return
	}
	if req.Reported == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "reported is required"))
		return
	}
	if err := h.reported.MarkReported(c.Request.Context(), id, *req.Reported); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddTeacher godoc
// @Summary Staff a cell's teacher slot for one day
// @Tags Shifts
// @Accept json
// @Produce json
// @Param payload body dto.AddTeacherShiftRequest true "Target cell and teacher"
// @Success 201 {object} response.Envelope
// @Router /shifts/teachers [post]
func (h *ShiftHandler) AddTeacher(c *gin.Context) {
	var req dto.AddTeacherShiftRequest
	if !bindJSON(c, &req, "invalid teacher shift payload") {
		return
	}
	shift, err := h.reschedule.AddTeacherToShift(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, shift)
}

// RemoveTeacher godoc
// @Summary Clear a cell's teacher slot
// @Tags Shifts
// @Param id path int true "Daily cell ID"
// @Success 204
// @Router /shifts/cells/{id}/teacher [delete]
func (h *ShiftHandler) RemoveTeacher(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.reschedule.RemoveTeacherFromShift(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
