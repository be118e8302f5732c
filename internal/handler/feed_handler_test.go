package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-shift-api/internal/dto"
	appErrors "github.com/noah-isme/tutor-shift-api/pkg/errors"
)

type feedServiceMock struct {
	kind      string
	id        int64
	expires   string
	signature string
}

func (m *feedServiceMock) CreateURL(ctx context.Context, req dto.CreateFeedRequest) (*dto.FeedURLResponse, error) {
	if req.Kind == "room" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid feed request")
	}
	return &dto.FeedURLResponse{URL: "https://tutor.example/api/v1/feeds/person/1.ics?expires=1&signature=abc", ExpiresAt: "2024-04-01T10:00:00Z"}, nil
}

func (m *feedServiceMock) Render(ctx context.Context, kind string, id int64, expires, signature string) ([]byte, string, error) {
	m.kind, m.id, m.expires, m.signature = kind, id, expires, signature
	if signature != "good" {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid feed signature")
	}
	return []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"), "aiko-tanaka.ics", nil
}

func newFeedRouter(feeds *feedServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewFeedHandler(feeds)
	router := gin.New()
	router.POST("/feeds", handler.Create)
	router.GET("/feeds/:kind/:file", handler.Serve)
	return router
}

func TestFeedHandlerServe(t *testing.T) {
	feeds := &feedServiceMock{}
	router := newFeedRouter(feeds)

	req, _ := http.NewRequest(http.MethodGet, "/feeds/person/12.ics?expires=1712000000&signature=good", nil)
	w := performRequest(router, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "person", feeds.kind)
	assert.Equal(t, int64(12), feeds.id)
	assert.Equal(t, "1712000000", feeds.expires)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/calendar"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "aiko-tanaka.ics")
	assert.Contains(t, w.Body.String(), "BEGIN:VCALENDAR")

	req, _ = http.NewRequest(http.MethodGet, "/feeds/person/12.ics?expires=1712000000&signature=forged", nil)
	assert.Equal(t, http.StatusUnauthorized, performRequest(router, req).Code)

	req, _ = http.NewRequest(http.MethodGet, "/feeds/person/twelve.ics", nil)
	assert.Equal(t, http.StatusNotFound, performRequest(router, req).Code)
}

func TestFeedHandlerCreate(t *testing.T) {
	router := newFeedRouter(&feedServiceMock{})

	req, _ := http.NewRequest(http.MethodPost, "/feeds", strings.NewReader(`{"kind":"person","id":1}`))
	req.Header.Set("Content-Type", "application/json")
	w := performRequest(router, req)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "feeds/person/1.ics")

	req, _ = http.NewRequest(http.MethodPost, "/feeds", strings.NewReader(`{"kind":"room","id":1}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, performRequest(router, req).Code)
}
