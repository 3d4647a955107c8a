package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rackbook-api/internal/dto"
	"github.com/noah-isme/rackbook-api/internal/models"
	appErrors "github.com/noah-isme/rackbook-api/pkg/errors"
	"github.com/noah-isme/rackbook-api/pkg/export"
	"github.com/noah-isme/rackbook-api/pkg/response"
)

type worklistAPI interface {
	List(ctx context.Context, filter models.WorklistFilter) ([]models.WorklistRow, error)
	Export(ctx context.Context, filter models.WorklistFilter, format export.Format) ([]byte, error)
	MarkAdded(ctx context.Context, instanceIDs []string) (int, error)
}

// WorklistHandler serves the approved-booking worklist used to copy bookings into the external sheet.
type WorklistHandler struct {
	worklist worklistAPI
}

// NewWorklistHandler constructs the handler.
func NewWorklistHandler(worklist worklistAPI) *WorklistHandler {
	return &WorklistHandler{worklist: worklist}
}

// List godoc
// @Summary Approved instances in a date range
// @Tags Bookings
// @Produce json
// @Param from query string true "From date (YYYY-MM-DD)"
// @Param to query string true "To date (YYYY-MM-DD)"
// @Param pool query string false "Pool key"
// @Param status query string false "pending (default), added or all"
// @Success 200 {object} response.Envelope
// @Router /bookings/worklist [get]
func (h *WorklistHandler) List(c *gin.Context) {
	filter, err := worklistFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.worklist.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil, map[string]interface{}{"count": len(rows)})
}

// Export godoc
// @Summary Download the worklist as CSV or PDF
// @Tags Bookings
// @Produce text/csv
// @Produce application/pdf
// @Param from query string true "From date (YYYY-MM-DD)"
// @Param to query string true "To date (YYYY-MM-DD)"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /bookings/worklist/export [get]
func (h *WorklistHandler) Export(c *gin.Context) {
	filter, err := worklistFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := export.Format(strings.ToLower(c.DefaultQuery("format", string(export.FormatCSV))))
	if format != export.FormatCSV && format != export.FormatPDF {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	body, err := h.worklist.Export(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("worklist-%s-%s.%s", filter.From.Format(models.DateLayout), filter.To.Format(models.DateLayout), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, format.ContentType(), body)
}

// MarkAdded godoc
// @Summary Flag instances as copied into the external sheet
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body dto.MarkAddedRequest true "Instance IDs"
// @Success 200 {object} response.Envelope
// @Router /bookings/mark-added [post]
func (h *WorklistHandler) MarkAdded(c *gin.Context) {
	var req dto.MarkAddedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	h.markAdded(c, req.InstanceIDs)
}

// MarkOneAdded godoc
// @Summary Flag a single instance as copied into the external sheet
// @Tags Bookings
// @Produce json
// @Param instanceId path string true "Instance ID"
// @Success 200 {object} response.Envelope
// @Router /sync/{instanceId}/mark-added [post]
func (h *WorklistHandler) MarkOneAdded(c *gin.Context) {
	h.markAdded(c, []string{c.Param("instanceId")})
}

func (h *WorklistHandler) markAdded(c *gin.Context, ids []string) {
	updated, err := h.worklist.MarkAdded(c.Request.Context(), ids)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": updated}, nil)
}

func worklistFilter(c *gin.Context) (models.WorklistFilter, error) {
	var filter models.WorklistFilter
	from, err := models.ParseDate(c.Query("from"))
	if err != nil {
		return filter, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD")
	}
	to, err := models.ParseDate(c.Query("to"))
	if err != nil {
		return filter, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD")
	}
	filter.From, filter.To = from, to
	filter.PoolKey = c.Query("pool")
	filter.SlotStart = c.Query("slotStart")
	filter.SlotEnd = c.Query("slotEnd")

	switch status := strings.ToLower(c.DefaultQuery("status", string(models.SyncPending))); status {
	case "all":
		filter.Sync = ""
	case string(models.SyncPending), string(models.SyncAdded):
		filter.Sync = models.SyncStatus(status)
	default:
		return filter, appErrors.Clone(appErrors.ErrValidation, "status must be pending, added or all")
	}
	return filter, nil
}
