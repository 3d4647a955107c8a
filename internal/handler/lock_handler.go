package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rackbook-api/internal/dto"
	"github.com/noah-isme/rackbook-api/internal/models"
	appErrors "github.com/noah-isme/rackbook-api/pkg/errors"
	"github.com/noah-isme/rackbook-api/pkg/response"
)

type lockAPI interface {
	RunWeeklyLock(ctx context.Context, now time.Time) (*models.LockRunResult, error)
}

// LockHandler exposes the manual trigger of the weekly lock.
type LockHandler struct {
	locks lockAPI
	now   func() time.Time
}

// NewLockHandler constructs the handler.
func NewLockHandler(locks lockAPI) *LockHandler {
	return &LockHandler{locks: locks, now: time.Now}
}

// Run godoc
// @Summary Run the weekly lock for the following week
// @Description Without a body the current time is used; outside Thursday 00:xx UTC the run is skipped.
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.RunLockRequest false "Override clock"
// @Success 200 {object} response.Envelope
// @Router /admin/locks/run [post]
func (h *LockHandler) Run(c *gin.Context) {
	var req dto.RunLockRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
			return
		}
	}
	now := h.now()
	if req.Now != nil {
		parsed, err := time.Parse(time.RFC3339, *req.Now)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "now must be RFC3339"))
			return
		}
		now = parsed
	}
	result, err := h.locks.RunWeeklyLock(c.Request.Context(), now)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
