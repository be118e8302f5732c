package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-shift-api/internal/dto"
	"github.com/noah-isme/tutor-shift-api/internal/service"
	appErrors "github.com/noah-isme/tutor-shift-api/pkg/errors"
)

type lessonCounterMock struct {
	month    time.Time
	personID int64
}

func (m *lessonCounterMock) Count(ctx context.Context, personID int64, month time.Time) (*dto.LessonCountResponse, error) {
	m.personID = personID
	m.month = month
	if personID == 404 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "person not found")
	}
	return &dto.LessonCountResponse{PersonID: personID, Month: month.Format("2006-01"), Actual: 3, TheoreticalMax: 4}, nil
}

func (m *lessonCounterMock) CountAll(ctx context.Context, month time.Time) ([]dto.LessonCountResponse, error) {
	m.month = month
	return []dto.LessonCountResponse{{PersonID: 1, Actual: 2}, {PersonID: 2, Actual: 4}}, nil
}

type exporterMock struct {
	format string
}

func (m *exporterMock) DailyRoster(ctx context.Context, date time.Time, format string) (*service.ExportFile, error) {
	m.format = format
	return &service.ExportFile{Name: "roster-" + date.Format("2006-01-02") + ".csv", ContentType: "text/csv", Data: []byte("room,timeslot\n")}, nil
}

func (m *exporterMock) LessonCounts(ctx context.Context, month time.Time, personID *int64, format string) (*service.ExportFile, error) {
	m.format = format
	if format == "docx" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	return &service.ExportFile{Name: "lesson-counts-" + month.Format("2006-01") + ".csv", ContentType: "text/csv", Data: []byte("person,actual\n")}, nil
}

func performReport(handler *ReportHandler, target string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/reports/lesson-counts", handler.LessonCounts)
	router.GET("/exports/shifts/:date", handler.DailyRoster)
	req, _ := http.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestReportHandlerLessonCountsJSON(t *testing.T) {
	counts := &lessonCounterMock{}
	handler := NewReportHandler(counts, &exporterMock{})

	w := performReport(handler, "/reports/lesson-counts?month=2024-04&person_id=8")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"theoretical_max":4`)
	assert.Equal(t, int64(8), counts.personID)
	assert.Equal(t, time.April, counts.month.Month())

	w = performReport(handler, "/reports/lesson-counts?month=2024-04")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"person_id":2`)

	w = performReport(handler, "/reports/lesson-counts?month=2024-04&person_id=404")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportHandlerLessonCountsValidation(t *testing.T) {
	handler := NewReportHandler(&lessonCounterMock{}, &exporterMock{})

	assert.Equal(t, http.StatusBadRequest, performReport(handler, "/reports/lesson-counts").Code)
	assert.Equal(t, http.StatusBadRequest, performReport(handler, "/reports/lesson-counts?month=April").Code)
	assert.Equal(t, http.StatusBadRequest, performReport(handler, "/reports/lesson-counts?month=2024-04&person_id=abc").Code)
	assert.Equal(t, http.StatusBadRequest, performReport(handler, "/reports/lesson-counts?month=2024-04&format=docx").Code)
}

func TestReportHandlerExports(t *testing.T) {
	exporter := &exporterMock{}
	handler := NewReportHandler(&lessonCounterMock{}, exporter)

	w := performReport(handler, "/reports/lesson-counts?month=2024-04&format=CSV")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", exporter.format)
	assert.Equal(t, "attachment; filename=lesson-counts-2024-04.csv", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "person,actual\n", w.Body.String())

	w = performReport(handler, "/exports/shifts/2024-04-08?format=xlsx")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "xlsx", exporter.format)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "roster-2024-04-08.csv")

	w = performReport(handler, "/exports/shifts/tomorrow")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
