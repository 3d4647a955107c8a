package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/rackbook-api/internal/models"
	appErrors "github.com/noah-isme/rackbook-api/pkg/errors"
)

// EditOutcome is the gatekeeper verdict for a direct edit.
type EditOutcome int

const (
	EditAllowed EditOutcome = iota
	EditForbidden
	EditNeedsChangeRequest
)

type lockLookup interface {
	FindCovering(ctx context.Context, day time.Time) (*models.LockPeriod, error)
}

// FreezeGate combines the pre-slot short freeze with the weekly lock.
type FreezeGate struct {
	locks  lockLookup
	window time.Duration
	now    func() time.Time
}

// NewFreezeGate constructs the gate; window defaults to 24h.
func NewFreezeGate(locks lockLookup, window time.Duration) *FreezeGate {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &FreezeGate{locks: locks, window: window, now: time.Now}
}

// ShortFreeze reports whether the slot starts within the freeze window of now. Past slots are frozen.
func (g *FreezeGate) ShortFreeze(day time.Time, slotStart string, now time.Time) (bool, error) {
	h, m, err := models.ParseClock(slotStart)
	if err != nil {
		return false, err
	}
	start := models.DateOnly(day).Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
	return start.Sub(now.UTC()) <= g.window, nil
}

// WeekLocked reports whether any lock period's 7-day span contains the day.
func (g *FreezeGate) WeekLocked(ctx context.Context, day time.Time) (bool, error) {
	lock, err := g.locks.FindCovering(ctx, day)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup lock period: %w", err)
	}
	return lock.Contains(day), nil
}

// EditDecision applies the direct-edit table: the short freeze dominates for non-admins,
// then a locked week or an approved instance routes to the change-request workflow for everyone.
func (g *FreezeGate) EditDecision(ctx context.Context, inst models.BookingInstance, isAdmin bool) (EditOutcome, error) {
	frozen, err := g.ShortFreeze(inst.Date, inst.SlotStart, g.now())
	if err != nil {
		return EditForbidden, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if frozen && !isAdmin {
		return EditForbidden, nil
	}
	locked, err := g.WeekLocked(ctx, inst.Date)
	if err != nil {
		return EditForbidden, err
	}
	if locked || inst.Status == models.InstanceApproved {
		return EditNeedsChangeRequest, nil
	}
	return EditAllowed, nil
}

// SubmitDecision gates change-request submission. It returns nil when submission is allowed.
func (g *FreezeGate) SubmitDecision(ctx context.Context, inst models.BookingInstance, isAdmin bool) error {
	frozen, err := g.ShortFreeze(inst.Date, inst.SlotStart, g.now())
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if frozen && !isAdmin {
		return appErrors.ErrShortFreeze
	}
	locked, err := g.WeekLocked(ctx, inst.Date)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check weekly lock")
	}
	if !locked && inst.Status == models.InstanceDraft {
		return appErrors.ErrWrongWorkflow
	}
	return nil
}
