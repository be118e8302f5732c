package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-shift-api/internal/dto"
	"github.com/noah-isme/tutor-shift-api/internal/models"
	"github.com/noah-isme/tutor-shift-api/internal/service"
	appErrors "github.com/noah-isme/tutor-shift-api/pkg/errors"
	"github.com/noah-isme/tutor-shift-api/pkg/response"
)

// TemplateHandler exposes the weekly grid templates.
type TemplateHandler struct {
	templates *service.GridTemplateService
}

// NewTemplateHandler constructs a TemplateHandler.
func NewTemplateHandler(templates *service.GridTemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// List godoc
// @Summary List template cells
// @Tags Templates
// @Produce json
// @Param year query string false "Year tag (current,next)"
// @Param weekday query int false "Weekday 1-5"
// @Success 200 {object} response.Envelope
// @Router /templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	tag := models.YearTag(c.DefaultQuery("year", string(models.YearCurrent)))
	var weekday *int
	if raw := c.Query("weekday"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid weekday"))
			return
		}
		weekday = &v
	}
	cells, err := h.templates.List(c.Request.Context(), tag, weekday)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.TemplateListResponse{YearTag: tag, Cells: cells}, nil)
}

// Save godoc
// @Summary Save template slot edits
// @Tags Templates
// @Accept json
// @Produce json
// @Param payload body dto.SaveTemplateRequest true "Cell-id + slot pairs"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /templates [put]
func (h *TemplateHandler) Save(c *gin.Context) {
	var req dto.SaveTemplateRequest
	if !bindJSON(c, &req, "invalid template payload") {
		return
	}
	cells, err := h.templates.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cells, nil)
}

// Initialize godoc
// @Summary Create missing template cells
// @Tags Templates
// @Accept json
// @Produce json
// @Param payload body dto.InitializeTemplateRequest true "Year tag"
// @Success 200 {object} response.Envelope
// @Router /templates/initialize [post]
func (h *TemplateHandler) Initialize(c *gin.Context) {
	var req dto.InitializeTemplateRequest
	if !bindJSON(c, &req, "invalid template payload") {
		return
	}
	created, err := h.templates.Initialize(c.Request.Context(), req.YearTag)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"year_tag": req.YearTag, "created": created}, nil)
}
