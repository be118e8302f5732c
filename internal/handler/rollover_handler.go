package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-shift-api/internal/models"
	"github.com/noah-isme/tutor-shift-api/pkg/response"
)

type rolloverService interface {
	Enqueue(ctx context.Context) (string, error)
	ListRuns(ctx context.Context, limit int) ([]models.RolloverRun, error)
}

// RolloverHandler triggers and inspects the fiscal-year rollover.
type RolloverHandler struct {
	rollover rolloverService
	logger   *zap.Logger
}

// NewRolloverHandler constructs a RolloverHandler.
func NewRolloverHandler(rollover rolloverService, logger *zap.Logger) *RolloverHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RolloverHandler{rollover: rollover, logger: logger}
}

// Trigger godoc
// @Summary Queue the fiscal-year rollover
// @Tags Rollover
// @Produce json
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /rollover [post]
func (h *RolloverHandler) Trigger(c *gin.Context) {
	jobID, err := h.rollover.Enqueue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	requestedBy := ""
	if claims := claimsFromContext(c); claims != nil {
		requestedBy = claims.UserID
	}
	h.logger.Info("rollover queued", zap.String("job_id", jobID), zap.String("requested_by", requestedBy))
	response.Accepted(c, jobID, "QUEUED")
}

// ListRuns godoc
// @Summary List recent rollover runs
// @Tags Rollover
// @Produce json
// @Param limit query int false "Max runs"
// @Success 200 {object} response.Envelope
// @Router /rollover/runs [get]
func (h *RolloverHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := h.rollover.ListRuns(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, nil)
}
