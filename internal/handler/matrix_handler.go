package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rackbook-api/internal/models"
	"github.com/noah-isme/rackbook-api/internal/service"
	appErrors "github.com/noah-isme/rackbook-api/pkg/errors"
	"github.com/noah-isme/rackbook-api/pkg/response"
)

type matrixAPI interface {
	SlotsForDate(ctx context.Context, day time.Time) (*service.MatrixDay, error)
	Pools(ctx context.Context) ([]models.Pool, error)
	Resources(ctx context.Context) ([]models.Resource, error)
	Areas(ctx context.Context) ([]models.Area, error)
}

// MatrixHandler exposes read-only slot matrix and inventory endpoints.
type MatrixHandler struct {
	matrix matrixAPI
}

// NewMatrixHandler constructs the handler.
func NewMatrixHandler(matrix matrixAPI) *MatrixHandler {
	return &MatrixHandler{matrix: matrix}
}

// Slots godoc
// @Summary Slot modes for every pool on a date
// @Tags Matrix
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /matrix/slots [get]
func (h *MatrixHandler) Slots(c *gin.Context) {
	day, err := models.ParseDate(c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	result, err := h.matrix.SlotsForDate(c.Request.Context(), day)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Pools godoc
// @Summary List pools
// @Tags Inventory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /inventory/pools [get]
func (h *MatrixHandler) Pools(c *gin.Context) {
	pools, err := h.matrix.Pools(c.Request.Context())
	respondList(c, pools, err)
}

// Resources godoc
// @Summary List resources of every pool
// @Tags Inventory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /inventory/resources [get]
func (h *MatrixHandler) Resources(c *gin.Context) {
	resources, err := h.matrix.Resources(c.Request.Context())
	respondList(c, resources, err)
}

// Areas godoc
// @Summary List auxiliary areas
// @Tags Inventory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /inventory/areas [get]
func (h *MatrixHandler) Areas(c *gin.Context) {
	areas, err := h.matrix.Areas(c.Request.Context())
	respondList(c, areas, err)
}

func respondList[T any](c *gin.Context, items []T, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil, map[string]interface{}{"count": len(items)})
}
