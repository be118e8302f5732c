package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-shift-api/internal/dto"
	"github.com/noah-isme/tutor-shift-api/internal/models"
	"github.com/noah-isme/tutor-shift-api/internal/service"
	"github.com/noah-isme/tutor-shift-api/pkg/response"
)

// LessonAssignmentHandler manages recurring weekly lesson assignments.
type LessonAssignmentHandler struct {
	lessons *service.LessonAssignmentService
}

// NewLessonAssignmentHandler constructs a LessonAssignmentHandler.
func NewLessonAssignmentHandler(lessons *service.LessonAssignmentService) *LessonAssignmentHandler {
	return &LessonAssignmentHandler{lessons: lessons}
}

// List godoc
// @Summary List weekly lesson assignments
// @Tags Lesson Assignments
// @Produce json
// @Param person_id query int false "Person ID"
// @Param active_on query string false "Only assignments active on this date"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /lesson-assignments [get]
func (h *LessonAssignmentHandler) List(c *gin.Context) {
	personID, ok := queryInt64(c, "person_id")
	if !ok {
		return
	}
	activeOn, ok := queryDate(c, "active_on")
	if !ok {
		return
	}
	page, size := pageParams(c)
	items, pagination, err := h.lessons.List(c.Request.Context(), models.LessonAssignmentFilter{
		PersonID: personID,
		ActiveOn: activeOn,
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get a weekly lesson assignment
// @Tags Lesson Assignments
// @Produce json
// @Param id path int true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /lesson-assignments/{id} [get]
func (h *LessonAssignmentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	assignment, err := h.lessons.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Create godoc
// @Summary Register a weekly lesson and materialize its occurrences
// @Tags Lesson Assignments
// @Accept json
// @Produce json
// @Param payload body dto.CreateLessonAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /lesson-assignments [post]
func (h *LessonAssignmentHandler) Create(c *gin.Context) {
	var req dto.CreateLessonAssignmentRequest
	if !bindJSON(c, &req, "invalid lesson assignment payload") {
		return
	}
	assignment, err := h.lessons.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Replace godoc
// @Summary Move a lesson to another weekday and timeslot from today on
// @Tags Lesson Assignments
// @Accept json
// @Produce json
// @Param id path int true "Assignment ID"
// @Param payload body dto.MoveAssignmentRequest true "New weekday and timeslot"
// @Success 201 {object} response.Envelope
// @Router /lesson-assignments/{id}/replace [post]
func (h *LessonAssignmentHandler) Replace(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.MoveAssignmentRequest
	if !bindJSON(c, &req, "invalid move payload") {
		return
	}
	assignment, err := h.lessons.Replace(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Cancel godoc
// @Summary Cancel a lesson assignment from today on
// @Tags Lesson Assignments
// @Param id path int true "Assignment ID"
// @Success 204
// @Router /lesson-assignments/{id}/cancel [post]
func (h *LessonAssignmentHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.lessons.Cancel(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ContinueNextYear godoc
// @Summary Carry a lesson into next year unchanged
// @Tags Lesson Assignments
// @Produce json
// @Param id path int true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /lesson-assignments/{id}/continue [post]
func (h *LessonAssignmentHandler) ContinueNextYear(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	assignment, err := h.lessons.ContinueNextYear(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// ChangeNextYear godoc
// @Summary Carry a lesson into next year at another weekday and timeslot
// @Tags Lesson Assignments
// @Accept json
// @Produce json
// @Param id path int true "Assignment ID"
// @Param payload body dto.MoveAssignmentRequest true "Next-year weekday and timeslot"
// @Success 201 {object} response.Envelope
// @Router /lesson-assignments/{id}/change-next-year [post]
func (h *LessonAssignmentHandler) ChangeNextYear(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.MoveAssignmentRequest
	if !bindJSON(c, &req, "invalid move payload") {
		return
	}
	assignment, err := h.lessons.ChangeNextYear(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// EndAtYearEnd godoc
// @Summary Stop a lesson at the end of the current year
// @Tags Lesson Assignments
// @Produce json
// @Param id path int true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /lesson-assignments/{id}/end [post]
func (h *LessonAssignmentHandler) EndAtYearEnd(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	assignment, err := h.lessons.EndAtYearEnd(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// TeacherAssignmentHandler manages recurring weekly teacher shifts.
type TeacherAssignmentHandler struct {
	teachers *service.TeacherAssignmentService
}

// NewTeacherAssignmentHandler constructs a TeacherAssignmentHandler.
func NewTeacherAssignmentHandler(teachers *service.TeacherAssignmentService) *TeacherAssignmentHandler {
	return &TeacherAssignmentHandler{teachers: teachers}
}

// List godoc
// @Summary List weekly teacher assignments
// @Tags Teacher Assignments
// @Produce json
// @Param teacher_id query int false "Teacher ID"
// @Param active_on query string false "Only assignments active on this date"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /teacher-assignments [get]
func (h *TeacherAssignmentHandler) List(c *gin.Context) {
	teacherID, ok := queryInt64(c, "teacher_id")
	if !ok {
		return
	}
	activeOn, ok := queryDate(c, "active_on")
	if !ok {
		return
	}
	page, size := pageParams(c)
	items, pagination, err := h.teachers.List(c.Request.Context(), models.TeacherAssignmentFilter{
		TeacherID: teacherID,
		ActiveOn:  activeOn,
		Page:      page,
		PageSize:  size,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Create godoc
// @Summary Register a weekly teacher shift
// @Tags Teacher Assignments
// @Accept json
// @Produce json
// @Param payload body dto.CreateTeacherAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /teacher-assignments [post]
func (h *TeacherAssignmentHandler) Create(c *gin.Context) {
	var req dto.CreateTeacherAssignmentRequest
	if !bindJSON(c, &req, "invalid teacher assignment payload") {
		return
	}
	assignment, err := h.teachers.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Replace godoc
// @Summary Move a teacher shift to another weekday and timeslot from today on
// @Tags Teacher Assignments
// @Accept json
// @Produce json
// @Param id path int true "Assignment ID"
// @Param payload body dto.MoveAssignmentRequest true "New weekday and timeslot"
// @Success 201 {object} response.Envelope
// @Router /teacher-assignments/{id}/replace [post]
func (h *TeacherAssignmentHandler) Replace(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.MoveAssignmentRequest
	if !bindJSON(c, &req, "invalid move payload") {
		return
	}
	assignment, err := h.teachers.Replace(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Cancel godoc
// @Summary Cancel a teacher shift from today on
// @Tags Teacher Assignments
// @Param id path int true "Assignment ID"
// @Success 204
// @Router /teacher-assignments/{id}/cancel [post]
func (h *TeacherAssignmentHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.teachers.Cancel(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ContinueNextYear godoc
// @Summary Carry a teacher shift into next year unchanged
// @Tags Teacher Assignments
// @Produce json
// @Param id path int true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /teacher-assignments/{id}/continue [post]
func (h *TeacherAssignmentHandler) ContinueNextYear(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	assignment, err := h.teachers.ContinueNextYear(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// ChangeNextYear godoc
// @Summary Carry a teacher shift into next year at another weekday and timeslot
// @Tags Teacher Assignments
// @Accept json
// @Produce json
// @Param id path int true "Assignment ID"
// @Param payload body dto.MoveAssignmentRequest true "Next-year weekday and timeslot"
// @Success 201 {object} response.Envelope
// @Router /teacher-assignments/{id}/change-next-year [post]
func (h *TeacherAssignmentHandler) ChangeNextYear(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.MoveAssignmentRequest
	if !bindJSON(c, &req, "invalid move payload") {
		return
	}
	assignment, err := h.teachers.ChangeNextYear(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// EndAtYearEnd godoc
// @Summary Stop a teacher shift at the end of the current year
// @Tags Teacher Assignments
// @Produce json
// @Param id path int true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /teacher-assignments/{id}/end [post]
func (h *TeacherAssignmentHandler) EndAtYearEnd(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	assignment, err := h.teachers.EndAtYearEnd(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}
