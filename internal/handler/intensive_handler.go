package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-shift-api/internal/dto"
	"github.com/noah-isme/tutor-shift-api/internal/service"
	"github.com/noah-isme/tutor-shift-api/pkg/response"
)

// IntensiveHandler manages seasonal intensive periods.
type IntensiveHandler struct {
	intensive *service.IntensiveService
}

// NewIntensiveHandler constructs an IntensiveHandler.
func NewIntensiveHandler(intensive *service.IntensiveService) *IntensiveHandler {
	return &IntensiveHandler{intensive: intensive}
}

// CreatePeriod godoc
// @Summary Open an intensive period
// @Tags Intensive
// @Accept json
// @Produce json
// @Param payload body dto.CreateIntensivePeriodRequest true "Period payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /intensive-periods [post]
func (h *IntensiveHandler) CreatePeriod(c *gin.Context) {
	var req dto.CreateIntensivePeriodRequest
	if !bindJSON(c, &req, "invalid intensive period payload") {
		return
	}
	period, err := h.intensive.CreatePeriod(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// DeletePeriod godoc
// @Summary Remove an intensive period and everything it generated
// @Tags Intensive
// @Param id path int true "Period ID"
// @Success 204
// @Router /intensive-periods/{id} [delete]
func (h *IntensiveHandler) DeletePeriod(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.intensive.DeletePeriod(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateAssignment godoc
// @Summary Enrol a person in an intensive period
// @Tags Intensive
// @Accept json
// @Produce json
// @Param id path int true "Period ID"
// @Param payload body dto.CreateIntensiveAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /intensive-periods/{id}/assignments [post]
func (h *IntensiveHandler) CreateAssignment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateIntensiveAssignmentRequest
	if !bindJSON(c, &req, "invalid intensive assignment payload") {
		return
	}
	assignment, err := h.intensive.CreateAssignment(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// UpdatePersonRequests godoc
// @Summary Toggle a person's intensive availability
// @Tags Intensive
// @Accept json
// @Produce json
// @Param id path int true "Period ID"
// @Param payload body dto.UpdatePersonRequestsRequest true "Toggles"
// @Success 200 {object} response.Envelope
// @Router /intensive-periods/{id}/person-requests [put]
func (h *IntensiveHandler) UpdatePersonRequests(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdatePersonRequestsRequest
	if !bindJSON(c, &req, "invalid availability payload") {
		return
	}
	updated, err := h.intensive.UpdatePersonRequests(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": updated}, nil)
}

// UpdateTeacherRequests godoc
// @Summary Toggle a teacher's intensive availability
// @Tags Intensive
// @Accept json
// @Produce json
// @Param payload body dto.UpdateTeacherRequestsRequest true "Toggles"
// @Success 200 {object} response.Envelope
// @Router /intensive-teacher-requests [put]
func (h *IntensiveHandler) UpdateTeacherRequests(c *gin.Context) {
	var req dto.UpdateTeacherRequestsRequest
	if !bindJSON(c, &req, "invalid availability payload") {
		return
	}
	updated, err := h.intensive.UpdateTeacherRequests(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": updated}, nil)
}
