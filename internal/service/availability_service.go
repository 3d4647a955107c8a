package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/rackbook-api/internal/models"
	appErrors "github.com/noah-isme/rackbook-api/pkg/errors"
)

const (
	reasonTeachingBlock = "teaching block"
	reasonGeneralOnly   = "general-only window"
	reasonNoAlternative = "no contiguous alternative available"
	reasonUnavailable   = "requested resources unavailable"
)

type requestReader interface {
	FindRequest(ctx context.Context, exec sqlx.ExtContext, id string) (*models.BookingRequest, error)
	ListInstances(ctx context.Context, requestID string) ([]models.BookingInstance, error)
}

type poolReader interface {
	FindPoolByKey(ctx context.Context, key string) (*models.Pool, error)
	ListResources(ctx context.Context, poolID int) ([]models.Resource, error)
}

type occupancyReader interface {
	TakenResources(ctx context.Context, poolID int, day time.Time, slot models.Slot) ([]int, error)
}

type slotPolicy interface {
	Resolve(ctx context.Context, day time.Time, poolID int, slot models.Slot) (*PolicyResolution, error)
	Exceptions(ctx context.Context, day time.Time, poolID int, slot models.Slot) ([]models.ExceptionWindow, error)
}

// AvailabilityService classifies every instance of a request as FIT, PARTIAL or CONFLICT.
type AvailabilityService struct {
	requests  requestReader
	pools     poolReader
	occupancy occupancyReader
	policy    slotPolicy
	metrics   *MetricsService
	workers   int
	logger    *zap.Logger
}

// NewAvailabilityService constructs the evaluator. workers bounds concurrent instance evaluation.
func NewAvailabilityService(requests requestReader, pools poolReader, occupancy occupancyReader, policy slotPolicy, metrics *MetricsService, workers int, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 1
	}
	return &AvailabilityService{
		requests:  requests,
		pools:     pools,
		occupancy: occupancy,
		policy:    policy,
		metrics:   metrics,
		workers:   workers,
		logger:    logger,
	}
}

// Check evaluates each instance of the request. Results follow the ascending date order of the instances.
func (s *AvailabilityService) Check(ctx context.Context, requestID string) ([]models.AvailabilityResult, error) {
	request, err := s.requests.FindRequest(ctx, nil, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	pool, err := s.pools.FindPoolByKey(ctx, request.PoolKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown pool %s", request.PoolKey))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pool")
	}
	resources, err := s.pools.ListResources(ctx, pool.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resources")
	}
	instances, err := s.requests.ListInstances(ctx, requestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instances")
	}

	results := make([]models.AvailabilityResult, len(instances))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range instances {
		i := i
		g.Go(func() error {
			res, err := s.evaluate(gctx, request, pool.ID, resources, instances[i])
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to evaluate availability")
	}

	for _, res := range results {
		s.metrics.RecordAvailability(string(res.Status))
	}
	s.logger.Debug("availability checked", zap.String("request_id", requestID), zap.Int("instances", len(results)))
	return results, nil
}

func (s *AvailabilityService) evaluate(ctx context.Context, request *models.BookingRequest, poolID int, resources []models.Resource, inst models.BookingInstance) (models.AvailabilityResult, error) {
	slot := inst.Slot()
	result := models.AvailabilityResult{
		InstanceID: inst.ID,
		Date:       inst.Date,
		SlotStart:  inst.SlotStart,
		SlotEnd:    inst.SlotEnd,
		Reasons:    []string{},
	}
	conflict := func(reasons ...string) models.AvailabilityResult {
		result.Status = models.AvailabilityConflict
		result.Reasons = reasons
		return result
	}

	resolved, err := s.policy.Resolve(ctx, inst.Date, poolID, slot)
	if err != nil {
		var missing *PolicyMissingError
		if errors.As(err, &missing) {
			return conflict(missing.Reason), nil
		}
		return result, err
	}

	mode := resolved.Row.Mode
	switch mode {
	case models.ModeTeachingBlock:
		return conflict(reasonTeachingBlock), nil
	case models.ModeGeneralOnly:
		return conflict(reasonGeneralOnly), nil
	}

	var reasons []string
	if (mode == models.ModePerformanceOnly || mode == models.ModeHybrid) && resolved.Row.PerformanceCap != nil {
		if limit := *resolved.Row.PerformanceCap; request.Headcount > limit {
			reasons = append(reasons, fmt.Sprintf("headcount %d exceeds performance cap %d", request.Headcount, limit))
		}
	}

	exceptions, err := s.policy.Exceptions(ctx, inst.Date, poolID, slot)
	if err != nil {
		return result, err
	}
	for _, ex := range exceptions {
		reasons = append(reasons, "exception: "+ex.Reason)
	}

	taken, err := s.occupancy.TakenResources(ctx, poolID, inst.Date, slot)
	if err != nil {
		return result, err
	}
	if len(taken) > 0 {
		result.Occupied = taken
	}

	requested := models.SortedInts(models.ToInts(request.Resources))
	if !intersects(requested, taken) && len(reasons) == 0 {
		result.Status = models.AvailabilityFit
		return result, nil
	}

	suggestion := SuggestBlock(resources, taken, len(requested), requested)
	if suggestion == nil {
		if len(reasons) == 0 {
			reasons = []string{reasonNoAlternative}
		}
		return conflict(reasons...), nil
	}
	if len(reasons) == 0 {
		reasons = []string{reasonUnavailable}
	}
	result.Status = models.AvailabilityPartial
	result.Reasons = reasons
	result.Suggestion = suggestion
	return result, nil
}

func intersects(a, b []int) bool {
	set := make(map[int]struct{}, len(b))
	for _, n := range b {
		set[n] = struct{}{}
	}
	for _, n := range a {
		if _, ok := set[n]; ok {
			return true
		}
	}
	return false
}
