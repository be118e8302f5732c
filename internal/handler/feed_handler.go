package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-shift-api/internal/dto"
	appErrors "github.com/noah-isme/tutor-shift-api/pkg/errors"
	"github.com/noah-isme/tutor-shift-api/pkg/response"
)

const (
	feedContentType = "text/calendar; charset=utf-8"
	feedMaxAge      = 300
)

type feedService interface {
	CreateURL(ctx context.Context, req dto.CreateFeedRequest) (*dto.FeedURLResponse, error)
	Render(ctx context.Context, kind string, id int64, expires, signature string) ([]byte, string, error)
}

// FeedHandler issues and serves signed iCalendar feeds.
type FeedHandler struct {
	feeds feedService
}

// NewFeedHandler constructs a FeedHandler.
func NewFeedHandler(feeds feedService) *FeedHandler {
	return &FeedHandler{feeds: feeds}
}

// Create godoc
// @Summary Issue a signed calendar feed URL
// @Tags Feeds
// @Accept json
// @Produce json
// @Param payload body dto.CreateFeedRequest true "Feed subject"
// @Success 201 {object} response.Envelope
// @Router /feeds [post]
func (h *FeedHandler) Create(c *gin.Context) {
	var req dto.CreateFeedRequest
	if !bindJSON(c, &req, "invalid feed payload") {
		return
	}
	link, err := h.feeds.CreateURL(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// Serve godoc
// @Summary Serve a signed iCalendar feed
// @Tags Feeds
// @Produce text/calendar
// @Param kind path string true "person or teacher"
// @Param file path string true "{id}.ics"
// @Param expires query int true "Expiry (unix seconds)"
// @Param signature query string true "HMAC signature"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /feeds/{kind}/{file} [get]
func (h *FeedHandler) Serve(c *gin.Context) {
	raw := strings.TrimSuffix(c.Param("file"), ".ics")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "feed not found"))
		return
	}
	body, name, err := h.feeds.Render(c.Request.Context(), c.Param("kind"), id, c.Query("expires"), c.Query("signature"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Inline(c, name, feedContentType, feedMaxAge, body)
}
