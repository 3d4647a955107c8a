package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/rackbook-api/internal/models"
	appErrors "github.com/noah-isme/rackbook-api/pkg/errors"
	"github.com/noah-isme/rackbook-api/pkg/export"
)

type syncMarker interface {
	MarkAdded(ctx context.Context, exec sqlx.ExtContext, instanceIDs []string) (int, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

var worklistHeaders = []string{"Date", "Pool", "Slot", "Squad", "Resources", "Sync", "Notes"}

// WorklistService serves the approved-booking worklist that staff copy into the external sheet.
type WorklistService struct {
	bookings approvedLister
	marks    syncMarker
	csv      datasetRenderer
	pdf      datasetRenderer
	kiosk    *KioskService
	logger   *zap.Logger
}

// NewWorklistService constructs the service.
func NewWorklistService(bookings approvedLister, marks syncMarker, kiosk *KioskService, logger *zap.Logger) *WorklistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorklistService{
		bookings: bookings,
		marks:    marks,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		kiosk:    kiosk,
		logger:   logger,
	}
}

// List returns approved instances in the inclusive date range.
func (s *WorklistService) List(ctx context.Context, filter models.WorklistFilter) ([]models.WorklistRow, error) {
	if filter.From.IsZero() || filter.To.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from and to required (YYYY-MM-DD)")
	}
	if filter.To.Before(filter.From) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must not precede from")
	}
	rows, err := s.bookings.ListApproved(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load worklist")
	}
	return rows, nil
}

// Export renders the worklist as CSV or PDF.
func (s *WorklistService) Export(ctx context.Context, filter models.WorklistFilter, format export.Format) ([]byte, error) {
	rows, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{
		Title:   fmt.Sprintf("Bookings %s to %s", filter.From.Format(models.DateLayout), filter.To.Format(models.DateLayout)),
		Headers: worklistHeaders,
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"Date":      row.Date.Format(models.DateLayout),
			"Pool":      row.PoolKey,
			"Slot":      row.SlotStart + "-" + row.SlotEnd,
			"Squad":     squadOf(row),
			"Resources": joinInts(models.ToInts(row.Resources)),
			"Sync":      string(row.Sync),
			"Notes":     row.Notes,
		})
	}

	var renderer datasetRenderer
	switch format {
	case export.FormatCSV:
		renderer = s.csv
	case export.FormatPDF:
		renderer = s.pdf
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	out, err := renderer.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render worklist")
	}
	return out, nil
}

// MarkAdded flags instances as copied into the external sheet.
func (s *WorklistService) MarkAdded(ctx context.Context, instanceIDs []string) (int, error) {
	if len(instanceIDs) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "instanceIds required")
	}
	updated, err := s.marks.MarkAdded(ctx, nil, instanceIDs)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark instances added")
	}
	s.kiosk.Pump()
	return updated, nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}
