package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-shift-api/internal/dto"
	"github.com/noah-isme/tutor-shift-api/internal/service"
	appErrors "github.com/noah-isme/tutor-shift-api/pkg/errors"
	"github.com/noah-isme/tutor-shift-api/pkg/response"
)

type lessonCounter interface {
	Count(ctx context.Context, personID int64, month time.Time) (*dto.LessonCountResponse, error)
	CountAll(ctx context.Context, month time.Time) ([]dto.LessonCountResponse, error)
}

type reportExporter interface {
	DailyRoster(ctx context.Context, date time.Time, format string) (*service.ExportFile, error)
	LessonCounts(ctx context.Context, month time.Time, personID *int64, format string) (*service.ExportFile, error)
}

// ReportHandler serves billing counts and document exports.
type ReportHandler struct {
	counts   lessonCounter
	exporter reportExporter
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(counts lessonCounter, exporter reportExporter) *ReportHandler {
	return &ReportHandler{counts: counts, exporter: exporter}
}

// LessonCounts godoc
// @Summary Monthly lesson counts for billing
// @Tags Reports
// @Produce json
// @Produce text/csv
// @Param month query string true "Month (YYYY-MM)"
// @Param person_id query int false "Person ID"
// @Param format query string false "json (default), csv, xlsx or pdf"
// @Success 200 {object} response.Envelope
// @Router /reports/lesson-counts [get]
func (h *ReportHandler) LessonCounts(c *gin.Context) {
	month, err := time.ParseInLocation(service.MonthLayout, strings.TrimSpace(c.Query("month")), time.UTC)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month must be YYYY-MM"))
		return
	}
	personID, ok := queryInt64(c, "person_id")
	if !ok {
		return
	}

	format := strings.ToLower(strings.TrimSpace(c.Query("format")))
	if format != "" && format != "json" {
		file, err := h.exporter.LessonCounts(c.Request.Context(), month, personID, format)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Attachment(c, file.Name, file.ContentType, file.Data)
		return
	}

	if personID != nil {
		count, err := h.counts.Count(c.Request.Context(), *personID, month)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, count, nil)
		return
	}
	counts, err := h.counts.CountAll(c.Request.Context(), month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}

// DailyRoster godoc
// @Summary Export the daily grid as a printable roster
// @Tags Reports
// @Produce text/csv
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param format query string false "csv (default), xlsx or pdf"
// @Success 200 {file} file
// @Router /exports/shifts/{date} [get]
func (h *ReportHandler) DailyRoster(c *gin.Context) {
	date, ok := pathDate(c)
	if !ok {
		return
	}
	file, err := h.exporter.DailyRoster(c.Request.Context(), date, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Name, file.ContentType, file.Data)
}
