package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/rackbook-api/internal/dto"
	"github.com/noah-isme/rackbook-api/internal/models"
	appErrors "github.com/noah-isme/rackbook-api/pkg/errors"
)

type approvalStore interface {
	FindRequest(ctx context.Context, exec sqlx.ExtContext, id string) (*models.BookingRequest, error)
	FindInstance(ctx context.Context, exec sqlx.ExtContext, id string, forUpdate bool) (*models.BookingInstance, error)
	ListBlockSiblings(ctx context.Context, inst models.BookingInstance) ([]models.BookingInstance, error)
	SetInstanceStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.InstanceStatus) error
}

type allocationStore interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, alloc *models.Allocation) error
	UpsertSyncMark(ctx context.Context, exec sqlx.ExtContext, instanceID string, status models.SyncStatus) error
}

// ApprovalService commits resource allocations for instances.
type ApprovalService struct {
	bookings  approvalStore
	pools     poolReader
	allocs    allocationStore
	tx        txRunner
	kiosk     *KioskService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewApprovalService constructs the service.
func NewApprovalService(bookings approvalStore, pools poolReader, allocs allocationStore, tx txRunner, kiosk *KioskService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ApprovalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{bookings: bookings, pools: pools, allocs: allocs, tx: tx, kiosk: kiosk, metrics: metrics, validator: validate, logger: logger}
}

// Approve allocates resources to one instance, or to every instance of the same request sharing its slot and pool.
// Each instance is committed in its own transaction; block failures are counted and do not roll back siblings.
func (s *ApprovalService) Approve(ctx context.Context, instanceID string, req dto.ApproveRequest) (*dto.ApproveResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval payload")
	}
	scope := req.ApplyTo
	if scope == "" {
		scope = dto.ApprovalSingle
	}

	inst, err := s.bookings.FindInstance(ctx, nil, instanceID, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instance")
	}
	request, err := s.bookings.FindRequest(ctx, nil, inst.RequestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}

	resources := req.Resources
	if len(resources) == 0 {
		resources = models.ToInts(request.Resources)
	}
	resources = models.SortedInts(resources)
	pool, err := resolvePoolResources(ctx, s.pools, inst.PoolKey, resources)
	if err != nil {
		return nil, err
	}

	targets := []models.BookingInstance{*inst}
	if scope == dto.ApprovalBlock {
		targets, err = s.bookings.ListBlockSiblings(ctx, *inst)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load block siblings")
		}
	}

	resp := &dto.ApproveResponse{Allocations: []models.Allocation{}}
	var lastErr error
	for _, target := range targets {
		alloc, err := s.approveOne(ctx, target.ID, pool.ID, resources)
		s.metrics.RecordApproval(string(scope), err == nil)
		if err != nil {
			lastErr = err
			resp.Failed++
			s.logger.Warn("instance approval failed",
				zap.String("instance_id", target.ID),
				zap.String("scope", string(scope)),
				zap.Error(err))
			continue
		}
		resp.Approved++
		resp.Allocations = append(resp.Allocations, *alloc)
	}

	if resp.Approved == 0 && lastErr != nil {
		if errors.Is(lastErr, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instance not found")
		}
		return nil, appErrors.Wrap(lastErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve instance")
	}
	s.kiosk.Pump()
	return resp, nil
}

// approveOne locks the instance row, upserts its allocation, marks it approved and resets its sync mark, atomically.
func (s *ApprovalService) approveOne(ctx context.Context, instanceID string, poolID int, resources []int) (*models.Allocation, error) {
	alloc := &models.Allocation{
		InstanceID: instanceID,
		PoolID:     poolID,
		Resources:  models.FromInts(resources),
		Status:     models.AllocationApproved,
	}
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if _, err := s.bookings.FindInstance(ctx, exec, instanceID, true); err != nil {
			return err
		}
		if err := s.allocs.Upsert(ctx, exec, alloc); err != nil {
			return err
		}
		if err := s.bookings.SetInstanceStatus(ctx, exec, instanceID, models.InstanceApproved); err != nil {
			return err
		}
		return s.allocs.UpsertSyncMark(ctx, exec, instanceID, models.SyncPending)
	})
	if err != nil {
		return nil, err
	}
	return alloc, nil
}
