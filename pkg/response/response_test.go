package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/tutor-shift-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestErrorRendersEnvelopeWithStatus(t *testing.T) {
	c, w := newContext()

	Error(c, appErrors.Clone(appErrors.ErrCapacityExceeded, "no free slot"))

	require.Equal(t, http.StatusConflict, w.Code)
	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, body.Error.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Empty(t, c.Errors)
}

func TestErrorAttachesInternalCause(t *testing.T) {
	c, w := newContext()

	Error(c, errors.New("connection reset"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Len(t, c.Errors, 1)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestAttachmentAndInlineHeaders(t *testing.T) {
	c, w := newContext()
	Attachment(c, "roster 2025-04-07.csv", "text/csv", []byte("a,b\n"))
	assert.Equal(t, `attachment; filename="roster 2025-04-07.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", w.Body.String())

	c, w = newContext()
	Inline(c, "aiko.ics", "text/calendar", 300, []byte("BEGIN:VCALENDAR"))
	assert.Equal(t, "inline; filename=aiko.ics", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "private, max-age=300", w.Header().Get("Cache-Control"))
}

func TestAcceptedCarriesJobID(t *testing.T) {
	c, w := newContext()

	Accepted(c, "job-1", "QUEUED")

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"data":{"job_id":"job-1","status":"QUEUED"}}`, w.Body.String())
}
