package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rackbook-api/internal/dto"
	"github.com/noah-isme/rackbook-api/internal/models"
	appErrors "github.com/noah-isme/rackbook-api/pkg/errors"
	"github.com/noah-isme/rackbook-api/pkg/response"
)

type changeRequestAPI interface {
	Submit(ctx context.Context, req dto.SubmitChangeRequest, requesterID string, isAdmin bool) (*models.ChangeRequest, error)
	Decide(ctx context.Context, id string, req dto.DecideChangeRequest, deciderID string) (*dto.DecideChangeResponse, error)
	Queue(ctx context.Context) ([]models.ChangeQueueItem, error)
}

// ChangeRequestHandler exposes the change-request workflow.
type ChangeRequestHandler struct {
	changes changeRequestAPI
}

// NewChangeRequestHandler constructs the handler.
func NewChangeRequestHandler(changes changeRequestAPI) *ChangeRequestHandler {
	return &ChangeRequestHandler{changes: changes}
}

// Submit godoc
// @Summary Submit a change request for a locked or approved instance
// @Tags Changes
// @Accept json
// @Produce json
// @Param payload body dto.SubmitChangeRequest true "Change request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /changes [post]
func (h *ChangeRequestHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SubmitChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	change, err := h.changes.Submit(c.Request.Context(), req, claims.UserID, claims.IsAdmin())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, change)
}

// Decide godoc
// @Summary Approve or reject a pending change request
// @Tags Changes
// @Accept json
// @Produce json
// @Param id path string true "Change request ID"
// @Param payload body dto.DecideChangeRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /changes/{id}/decide [post]
func (h *ChangeRequestHandler) Decide(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.DecideChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.changes.Decide(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Queue godoc
// @Summary Pending change requests, oldest first
// @Tags Changes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /changes/queue [get]
func (h *ChangeRequestHandler) Queue(c *gin.Context) {
	items, err := h.changes.Queue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil, map[string]interface{}{"count": len(items)})
}
