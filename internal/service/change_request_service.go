package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/rackbook-api/internal/dto"
	"github.com/noah-isme/rackbook-api/internal/models"
	"github.com/noah-isme/rackbook-api/internal/repository"
	appErrors "github.com/noah-isme/rackbook-api/pkg/errors"
)

type changeStore interface {
	Create(ctx context.Context, change *models.ChangeRequest) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string, forUpdate bool) (*models.ChangeRequest, error)
	ListPending(ctx context.Context) ([]models.ChangeQueueItem, error)
	Decide(ctx context.Context, exec sqlx.ExtContext, params repository.DecideParams) error
}

type changeTargetStore interface {
	FindInstance(ctx context.Context, exec sqlx.ExtContext, id string, forUpdate bool) (*models.BookingInstance, error)
	PatchRequest(ctx context.Context, exec sqlx.ExtContext, id string, patch models.RequestPatch) error
}

type submitGate interface {
	SubmitDecision(ctx context.Context, inst models.BookingInstance, isAdmin bool) error
}

type notifier interface {
	Notify(ctx context.Context, recipient, kind string, payload interface{})
}

// ChangeRequestService runs the submit/decide workflow for locked or approved instances.
type ChangeRequestService struct {
	changes        changeStore
	bookings       changeTargetStore
	pools          poolReader
	allocs         allocationWriter
	tx             txRunner
	gate           submitGate
	notify         notifier
	kiosk          *KioskService
	metrics        *MetricsService
	validator      *validator.Validate
	adminRecipient string
	logger         *zap.Logger
	now            func() time.Time
}

// ChangeRequestDeps groups collaborators of the change-request workflow.
type ChangeRequestDeps struct {
	Changes        changeStore
	Bookings       changeTargetStore
	Pools          poolReader
	Allocations    allocationWriter
	Tx             txRunner
	Gate           submitGate
	Notifier       notifier
	Kiosk          *KioskService
	Metrics        *MetricsService
	Validator      *validator.Validate
	AdminRecipient string
	Logger         *zap.Logger
}

// NewChangeRequestService constructs the service.
func NewChangeRequestService(deps ChangeRequestDeps) *ChangeRequestService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.AdminRecipient == "" {
		deps.AdminRecipient = "admin-group"
	}
	return &ChangeRequestService{
		changes:        deps.Changes,
		bookings:       deps.Bookings,
		pools:          deps.Pools,
		allocs:         deps.Allocations,
		tx:             deps.Tx,
		gate:           deps.Gate,
		notify:         deps.Notifier,
		kiosk:          deps.Kiosk,
		metrics:        deps.Metrics,
		validator:      deps.Validator,
		adminRecipient: deps.AdminRecipient,
		logger:         deps.Logger,
		now:            time.Now,
	}
}

// Submit records a pending change request after the short-freeze and workflow gates pass.
func (s *ChangeRequestService) Submit(ctx context.Context, req dto.SubmitChangeRequest, requesterID string, isAdmin bool) (*models.ChangeRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change request")
	}
	inst, err := s.bookings.FindInstance(ctx, nil, req.InstanceID, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instance")
	}
	if err := s.gate.SubmitDecision(ctx, *inst, isAdmin); err != nil {
		return nil, err
	}
	if req.Payload.Resources != nil {
		if _, err := resolvePoolResources(ctx, s.pools, inst.PoolKey, req.Payload.Resources); err != nil {
			return nil, err
		}
	}

	raw, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change payload")
	}
	change := &models.ChangeRequest{
		InstanceID:  inst.ID,
		RequestedBy: requesterID,
		Reason:      req.Reason,
		Payload:     raw,
		Status:      models.ChangeRequestPending,
	}
	if err := s.changes.Create(ctx, change); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create change request")
	}

	s.notify.Notify(ctx, s.adminRecipient, models.NotifyChangeSubmitted, map[string]interface{}{
		"changeRequestId": change.ID,
		"instanceId":      inst.ID,
		"by":              requesterID,
		"reason":          req.Reason,
		"payload":         req.Payload,
	})
	return change, nil
}

// Queue returns pending change requests, oldest first.
func (s *ChangeRequestService) Queue(ctx context.Context) ([]models.ChangeQueueItem, error) {
	items, err := s.changes.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list change requests")
	}
	return nonNil(items), nil
}

// Decide approves or rejects a pending change request. Approval applies the payload
// and the status write in one transaction guarded by status = pending.
func (s *ChangeRequestService) Decide(ctx context.Context, id string, req dto.DecideChangeRequest, deciderID string) (*dto.DecideChangeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}
	approve := *req.Approve

	change, err := s.changes.FindByID(ctx, nil, id, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "change request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load change request")
	}
	if change.Status != models.ChangeRequestPending {
		return nil, appErrors.ErrAlreadyDecided
	}
	payload, err := change.DecodePayload()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "stored change payload is malformed")
	}

	var inst *models.BookingInstance
	var poolID int
	if approve {
		inst, err = s.bookings.FindInstance(ctx, nil, change.InstanceID, false)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "instance not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instance")
		}
		if payload.Resources != nil {
			pool, err := resolvePoolResources(ctx, s.pools, inst.PoolKey, payload.Resources)
			if err != nil {
				return nil, err
			}
			poolID = pool.ID
		}
	}

	status := models.ChangeRequestRejected
	if approve {
		status = models.ChangeRequestApproved
	}
	var note *string
	if req.Note != "" {
		note = &req.Note
	}

	var newAlloc *models.Allocation
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if approve {
			if payload.Resources != nil {
				newAlloc = &models.Allocation{
					InstanceID: change.InstanceID,
					PoolID:     poolID,
					Resources:  models.FromInts(models.SortedInts(payload.Resources)),
					Status:     models.AllocationApproved,
				}
				if err := s.allocs.Upsert(ctx, exec, newAlloc); err != nil {
					return err
				}
			}
			if patch := payload.RequestPatch(); !patch.Empty() {
				if err := s.bookings.PatchRequest(ctx, exec, inst.RequestID, patch); err != nil {
					return err
				}
			}
		}
		err := s.changes.Decide(ctx, exec, repository.DecideParams{
			ID:        id,
			Status:    status,
			DecidedBy: deciderID,
			DecidedAt: s.now().UTC(),
			Note:      note,
		})
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrAlreadyDecided
		}
		return err
	})
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decide change request")
	}

	s.metrics.RecordChangeDecision(string(status))
	s.notify.Notify(ctx, change.RequestedBy, models.NotifyChangeDecided, map[string]interface{}{
		"changeRequestId": id,
		"approved":        approve,
		"reason":          req.Note,
		"instanceId":      change.InstanceID,
		"newAllocation":   newAlloc,
	})
	if newAlloc != nil {
		s.kiosk.Pump()
	}
	return &dto.DecideChangeResponse{ID: id, Approved: approve, NewAllocation: newAlloc}, nil
}
