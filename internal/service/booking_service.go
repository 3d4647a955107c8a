package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/rackbook-api/internal/dto"
	"github.com/noah-isme/rackbook-api/internal/models"
	appErrors "github.com/noah-isme/rackbook-api/pkg/errors"
)

type bookingStore interface {
	CreateRequest(ctx context.Context, request *models.BookingRequest) error
	FindRequest(ctx context.Context, exec sqlx.ExtContext, id string) (*models.BookingRequest, error)
	PatchRequest(ctx context.Context, exec sqlx.ExtContext, id string, patch models.RequestPatch) error
	InsertInstances(ctx context.Context, exec sqlx.ExtContext, instances []models.BookingInstance) error
	ListInstances(ctx context.Context, requestID string) ([]models.BookingInstance, error)
	FindInstance(ctx context.Context, exec sqlx.ExtContext, id string, forUpdate bool) (*models.BookingInstance, error)
	ListByStatus(ctx context.Context, status models.InstanceStatus) ([]models.InstanceWithRequest, error)
}

type allocationWriter interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, alloc *models.Allocation) error
}

type editGate interface {
	EditDecision(ctx context.Context, inst models.BookingInstance, isAdmin bool) (EditOutcome, error)
}

// BookingService owns draft creation, expansion into dated instances and direct edits.
type BookingService struct {
	repo      bookingStore
	pools     poolReader
	allocs    allocationWriter
	tx        txRunner
	gate      editGate
	kiosk     *KioskService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBookingService constructs the service.
func NewBookingService(repo bookingStore, pools poolReader, allocs allocationWriter, tx txRunner, gate editGate, kiosk *KioskService, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{repo: repo, pools: pools, allocs: allocs, tx: tx, gate: gate, kiosk: kiosk, validator: validate, logger: logger}
}

// CreateDraft stores a recurring booking request owned by ownerID.
func (s *BookingService) CreateDraft(ctx context.Context, req dto.CreateBookingRequest, ownerID string) (*models.BookingRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking request")
	}
	start, err := models.ParseDate(req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start date")
	}
	end, err := models.ParseDate(req.EndDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end date")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end must not precede start")
	}
	slot := models.Slot{Start: req.SlotStart, End: req.SlotEnd}
	if err := slot.Validate(); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if _, err := resolvePoolResources(ctx, s.pools, req.Pool, req.Resources); err != nil {
		return nil, err
	}

	areas := req.Areas
	if areas == nil {
		areas = []string{}
	}
	request := &models.BookingRequest{
		OwnerID:   ownerID,
		GroupID:   req.GroupID,
		StartDate: start,
		EndDate:   end,
		Weekdays:  models.FromInts(models.SortedInts(req.Weekdays)),
		SlotStart: slot.Start,
		SlotEnd:   slot.End,
		PoolKey:   req.Pool,
		Headcount: req.Headcount,
		Notes:     req.Notes,
		Resources: models.FromInts(models.SortedInts(req.Resources)),
		Areas:     areas,
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking request")
	}
	return request, nil
}

// Expand materialises one draft instance per date in range whose ISO weekday is in the pattern.
// Dates that already have an instance are skipped, so repeated calls create nothing new.
func (s *BookingService) Expand(ctx context.Context, requestID string) (int, error) {
	request, err := s.repo.FindRequest(ctx, nil, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	existing, err := s.repo.ListInstances(ctx, requestID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instances")
	}
	have := make(map[string]struct{}, len(existing))
	for _, inst := range existing {
		have[models.DateOnly(inst.Date).Format(models.DateLayout)] = struct{}{}
	}

	instances := ExpandDates(*request)
	fresh := instances[:0]
	for _, inst := range instances {
		if _, dup := have[inst.Date.Format(models.DateLayout)]; !dup {
			fresh = append(fresh, inst)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}
	if err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		return s.repo.InsertInstances(ctx, exec, fresh)
	}); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to expand request")
	}
	s.logger.Info("request expanded", zap.String("request_id", requestID), zap.Int("created", len(fresh)))
	return len(fresh), nil
}

// ExpandDates lists the draft instances a request pattern produces, ascending by date.
func ExpandDates(request models.BookingRequest) []models.BookingInstance {
	weekdays := make(map[int]struct{}, len(request.Weekdays))
	for _, d := range request.Weekdays {
		weekdays[int(d)] = struct{}{}
	}
	var out []models.BookingInstance
	end := models.DateOnly(request.EndDate)
	for d := models.DateOnly(request.StartDate); !d.After(end); d = d.AddDate(0, 0, 1) {
		if _, ok := weekdays[models.ISOWeekday(d)]; !ok {
			continue
		}
		out = append(out, models.BookingInstance{
			RequestID: request.ID,
			Date:      d,
			SlotStart: request.SlotStart,
			SlotEnd:   request.SlotEnd,
			PoolKey:   request.PoolKey,
			Status:    models.InstanceDraft,
		})
	}
	return out
}

// ListInstances returns a request's instances by ascending date.
func (s *BookingService) ListInstances(ctx context.Context, requestID string) ([]models.BookingInstance, error) {
	if _, err := s.repo.FindRequest(ctx, nil, requestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	instances, err := s.repo.ListInstances(ctx, requestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instances")
	}
	return instances, nil
}

// AdminBuckets returns draft instances and pending instances that need manual attention.
func (s *BookingService) AdminBuckets(ctx context.Context) (*dto.AdminBuckets, error) {
	drafts, err := s.repo.ListByStatus(ctx, models.InstanceDraft)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list drafts")
	}
	pending, err := s.repo.ListByStatus(ctx, models.InstancePending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending instances")
	}
	return &dto.AdminBuckets{
		NewDrafts:           nonNil(drafts),
		ManualNeeded:        nonNil(pending),
		OverridesInsideLock: []models.InstanceWithRequest{},
	}, nil
}

// EditInstance applies a direct edit when the gate allows it.
// Inside the short freeze a non-admin gets ErrShortFreeze; a locked week or approved instance yields ErrLockConflict.
func (s *BookingService) EditInstance(ctx context.Context, instanceID string, patch dto.InstancePatch, isAdmin bool) (*models.BookingInstance, error) {
	if err := s.validator.Struct(patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instance patch")
	}
	inst, err := s.repo.FindInstance(ctx, nil, instanceID, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instance")
	}

	outcome, err := s.gate.EditDecision(ctx, *inst, isAdmin)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to evaluate edit freeze")
	}
	switch outcome {
	case EditForbidden:
		return nil, appErrors.ErrShortFreeze
	case EditNeedsChangeRequest:
		return nil, appErrors.ErrLockConflict
	}

	var poolID int
	if patch.Resources != nil {
		pool, err := resolvePoolResources(ctx, s.pools, inst.PoolKey, patch.Resources)
		if err != nil {
			return nil, err
		}
		poolID = pool.ID
	}

	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if err := s.repo.PatchRequest(ctx, exec, inst.RequestID, patch.RequestPatch()); err != nil {
			return err
		}
		if patch.Resources == nil {
			return nil
		}
		return s.allocs.Upsert(ctx, exec, &models.Allocation{
			InstanceID: inst.ID,
			PoolID:     poolID,
			Resources:  models.FromInts(models.SortedInts(patch.Resources)),
			Status:     models.AllocationApproved,
		})
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply instance edit")
	}
	if patch.Resources != nil {
		s.kiosk.Pump()
	}
	return inst, nil
}

// resolvePoolResources resolves the pool and checks every number belongs to it.
func resolvePoolResources(ctx context.Context, pools poolReader, poolKey string, numbers []int) (*models.Pool, error) {
	pool, err := pools.FindPoolByKey(ctx, poolKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown pool %s", poolKey))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pool")
	}
	if len(numbers) == 0 {
		return pool, nil
	}
	resources, err := pools.ListResources(ctx, pool.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resources")
	}
	if missing := models.MissingNumbers(resources, numbers); len(missing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("resources %v are not in pool %s", missing, poolKey))
	}
	return pool, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
