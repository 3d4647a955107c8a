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

type bookingAPI interface {
	CreateDraft(ctx context.Context, req dto.CreateBookingRequest, ownerID string) (*models.BookingRequest, error)
	Expand(ctx context.Context, requestID string) (int, error)
	ListInstances(ctx context.Context, requestID string) ([]models.BookingInstance, error)
	AdminBuckets(ctx context.Context) (*dto.AdminBuckets, error)
	EditInstance(ctx context.Context, instanceID string, patch dto.InstancePatch, isAdmin bool) (*models.BookingInstance, error)
}

type availabilityAPI interface {
	Check(ctx context.Context, requestID string) ([]models.AvailabilityResult, error)
}

type approvalAPI interface {
	Approve(ctx context.Context, instanceID string, req dto.ApproveRequest) (*dto.ApproveResponse, error)
}

// BookingHandler exposes request, instance and approval endpoints.
type BookingHandler struct {
	bookings     bookingAPI
	availability availabilityAPI
	approvals    approvalAPI
}

// NewBookingHandler constructs the handler.
func NewBookingHandler(bookings bookingAPI, availability availabilityAPI, approvals approvalAPI) *BookingHandler {
	return &BookingHandler{bookings: bookings, availability: availability, approvals: approvals}
}

// CreateRequest godoc
// @Summary Create a draft booking request
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.CreateBookingRequest true "Booking pattern"
// @Success 201 {object} response.Envelope
// @Router /requests [post]
func (h *BookingHandler) CreateRequest(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	if req.GroupID == nil && claims.GroupID != "" {
		group := claims.GroupID
		req.GroupID = &group
	}
	request, err := h.bookings.CreateDraft(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Expand godoc
// @Summary Expand a request into dated instances
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 201 {object} response.Envelope
// @Router /requests/{id}/instances [post]
func (h *BookingHandler) Expand(c *gin.Context) {
	created, err := h.bookings.Expand(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ExpandResponse{Created: created})
}

// ListInstances godoc
// @Summary List the instances of a request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/instances [get]
func (h *BookingHandler) ListInstances(c *gin.Context) {
	instances, err := h.bookings.ListInstances(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instances, nil)
}

// CheckAvailability godoc
// @Summary Classify each instance of a request as FIT, PARTIAL or CONFLICT
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body dto.AvailabilityCheckRequest true "Request reference"
// @Success 200 {object} response.Envelope
// @Router /availability/check [post]
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	var req dto.AvailabilityCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RequestID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "requestId required"))
		return
	}
	results, err := h.availability.Check(c.Request.Context(), req.RequestID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.AvailabilityCheckResponse{RequestID: req.RequestID, Results: results}, nil)
}

// Approve godoc
// @Summary Approve an instance or its whole block
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Instance ID"
// @Param payload body dto.ApproveRequest false "Scope and resource override"
// @Success 200 {object} response.Envelope
// @Router /admin/instances/{id}/approve [post]
func (h *BookingHandler) Approve(c *gin.Context) {
	var req dto.ApproveRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
			return
		}
	}
	result, err := h.approvals.Approve(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// AdminBuckets godoc
// @Summary Instances awaiting admin attention
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/requests [get]
func (h *BookingHandler) AdminBuckets(c *gin.Context) {
	buckets, err := h.bookings.AdminBuckets(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, buckets, nil)
}

// EditInstance godoc
// @Summary Edit an unlocked instance directly
// @Description Responds 409 with meta.locked=true when the week is locked or the instance is approved.
// @Tags Instances
// @Accept json
// @Produce json
// @Param id path string true "Instance ID"
// @Param payload body dto.InstancePatch true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /instances/{id} [patch]
func (h *BookingHandler) EditInstance(c *gin.Context) {
	var patch dto.InstancePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	claims := claimsFromContext(c)
	inst, err := h.bookings.EditInstance(c.Request.Context(), c.Param("id"), patch, claims.IsAdmin())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inst, nil)
}
