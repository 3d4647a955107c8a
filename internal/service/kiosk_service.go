package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/rackbook-api/internal/models"
	appErrors "github.com/noah-isme/rackbook-api/pkg/errors"
)

const kioskPumpTimeout = 5 * time.Second

type poolLister interface {
	ListPools(ctx context.Context) ([]models.Pool, error)
}

type matrixReader interface {
	FindWindowForDate(ctx context.Context, day time.Time) (*models.PolicyWindow, error)
	ListSlotModes(ctx context.Context, windowID string, weekday int) ([]models.SlotModeRow, error)
}

type approvedLister interface {
	ListApproved(ctx context.Context, filter models.WorklistFilter) ([]models.WorklistRow, error)
}

// KioskService builds the live dashboard snapshot and pushes it to the hub.
type KioskService struct {
	pools    poolLister
	matrix   matrixReader
	bookings approvedLister
	hub      *KioskHub
	logger   *zap.Logger
	now      func() time.Time
}

// NewKioskService constructs the service.
func NewKioskService(pools poolLister, matrix matrixReader, bookings approvedLister, hub *KioskHub, logger *zap.Logger) *KioskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KioskService{pools: pools, matrix: matrix, bookings: bookings, hub: hub, logger: logger, now: time.Now}
}

// Hub exposes the subscriber registry.
func (s *KioskService) Hub() *KioskHub {
	return s.hub
}

// State returns, per pool, the slot running at now, the next slot and the approved allocations of the current slot.
func (s *KioskService) State(ctx context.Context, now time.Time) (*models.KioskState, error) {
	now = now.UTC()
	pools, err := s.pools.ListPools(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pools")
	}
	slotsByPool, err := s.slotsFor(ctx, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot matrix")
	}

	state := &models.KioskState{Now: now, Pools: make(map[string]models.KioskPoolState, len(pools))}
	for _, pool := range pools {
		current, next := currentAndNext(slotsByPool[pool.ID], now)
		poolState := models.KioskPoolState{CurrentSlot: current, NextSlot: next, CurrentAllocations: []models.KioskAllocation{}}
		if current != nil {
			day := models.DateOnly(now)
			rows, err := s.bookings.ListApproved(ctx, models.WorklistFilter{
				From:      day,
				To:        day,
				PoolKey:   pool.Key,
				SlotStart: current.Start,
				SlotEnd:   current.End,
			})
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current allocations")
			}
			for _, row := range rows {
				poolState.CurrentAllocations = append(poolState.CurrentAllocations, models.KioskAllocation{
					InstanceID: row.InstanceID,
					Squad:      squadOf(row),
					Resources:  models.ToInts(row.Resources),
					Sync:       row.Sync,
					Notes:      row.Notes,
				})
			}
		}
		state.Pools[pool.Key] = poolState
	}
	return state, nil
}

// Pump rebuilds the snapshot and broadcasts it in the background. It never blocks the caller.
func (s *KioskService) Pump() {
	if s == nil || s.hub == nil || s.hub.Len() == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), kioskPumpTimeout)
		defer cancel()
		state, err := s.State(ctx, s.now())
		if err != nil {
			s.logger.Warn("kiosk pump failed", zap.Error(err))
			return
		}
		s.hub.Broadcast(KioskEvent{Type: KioskEventUpdate, Payload: *state})
	}()
}

func (s *KioskService) slotsFor(ctx context.Context, now time.Time) (map[int][]models.Slot, error) {
	window, err := s.matrix.FindWindowForDate(ctx, models.DateOnly(now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return map[int][]models.Slot{}, nil
		}
		return nil, err
	}
	rows, err := s.matrix.ListSlotModes(ctx, window.ID, models.ISOWeekday(now))
	if err != nil {
		return nil, err
	}
	out := make(map[int][]models.Slot)
	for _, row := range rows {
		out[row.PoolID] = append(out[row.PoolID], models.Slot{Start: row.SlotStart, End: row.SlotEnd})
	}
	return out, nil
}

// currentAndNext picks the slot containing now (start inclusive, end exclusive) and the first slot starting after now.
func currentAndNext(slots []models.Slot, now time.Time) (*models.Slot, *models.Slot) {
	sorted := append([]models.Slot(nil), slots...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	var current, next *models.Slot
	for i := range sorted {
		start, end, err := sorted[i].On(now)
		if err != nil {
			continue
		}
		if current == nil && !now.Before(start) && now.Before(end) {
			current = &sorted[i]
		}
		if next == nil && now.Before(start) {
			next = &sorted[i]
		}
	}
	return current, next
}

func squadOf(row models.WorklistRow) string {
	if row.GroupID != nil && *row.GroupID != "" {
		return *row.GroupID
	}
	return row.OwnerID
}
