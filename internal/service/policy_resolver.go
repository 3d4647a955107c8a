package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/rackbook-api/internal/models"
)

// PolicyMissingError reports that no window or slot mode governs an instance.
// The evaluator turns it into a CONFLICT result rather than a failure.
type PolicyMissingError struct {
	Reason string
}

func (e *PolicyMissingError) Error() string { return e.Reason }

type policyStore interface {
	FindWindowForDate(ctx context.Context, day time.Time) (*models.PolicyWindow, error)
	FindSlotMode(ctx context.Context, windowID string, poolID, weekday int, slot models.Slot) (*models.SlotModeRow, error)
	ListExceptions(ctx context.Context, poolID int, start, end time.Time) ([]models.ExceptionWindow, error)
}

// PolicyResolution is the window and matrix row governing one pool/date/slot.
type PolicyResolution struct {
	Window models.PolicyWindow
	Row    models.SlotModeRow
}

// PolicyResolver resolves the slot mode for a pool, date and slot.
type PolicyResolver struct {
	repo policyStore
}

// NewPolicyResolver constructs the resolver.
func NewPolicyResolver(repo policyStore) *PolicyResolver {
	return &PolicyResolver{repo: repo}
}

// Resolve selects the covering window with the latest start, then the row keyed by ISO weekday and exact slot bounds.
func (p *PolicyResolver) Resolve(ctx context.Context, day time.Time, poolID int, slot models.Slot) (*PolicyResolution, error) {
	day = models.DateOnly(day)
	window, err := p.repo.FindWindowForDate(ctx, day)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &PolicyMissingError{Reason: fmt.Sprintf("No policy window for %s", day.Format(models.DateLayout))}
		}
		return nil, fmt.Errorf("resolve policy window: %w", err)
	}
	row, err := p.repo.FindSlotMode(ctx, window.ID, poolID, models.ISOWeekday(day), slot)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &PolicyMissingError{Reason: "No slot defined for this weekday and time"}
		}
		return nil, fmt.Errorf("resolve slot mode: %w", err)
	}
	return &PolicyResolution{Window: *window, Row: *row}, nil
}

// Exceptions returns the pool's exception windows intersecting the slot on that day.
func (p *PolicyResolver) Exceptions(ctx context.Context, day time.Time, poolID int, slot models.Slot) ([]models.ExceptionWindow, error) {
	start, end, err := slot.On(day)
	if err != nil {
		return nil, err
	}
	windows, err := p.repo.ListExceptions(ctx, poolID, start, end)
	if err != nil {
		return nil, err
	}
	overlapping := windows[:0]
	for _, w := range windows {
		if w.Overlaps(start, end) {
			overlapping = append(overlapping, w)
		}
	}
	return overlapping, nil
}
