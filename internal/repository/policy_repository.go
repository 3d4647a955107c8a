package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rackbook-api/internal/models"
)

// PolicyRepository persists policy windows, slot modes and exception windows.
type PolicyRepository struct {
	db *sqlx.DB
}

// NewPolicyRepository constructs the repository.
func NewPolicyRepository(db *sqlx.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

func (r *PolicyRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindWindowForDate returns the covering window with the latest start date.
func (r *PolicyRepository) FindWindowForDate(ctx context.Context, day time.Time) (*models.PolicyWindow, error) {
	const query = `SELECT id, name, profile, start_date, end_date, created_at FROM policy_windows
WHERE start_date <= $1 AND end_date >= $1
ORDER BY start_date DESC LIMIT 1`
	var window models.PolicyWindow
	if err := r.db.GetContext(ctx, &window, query, models.DateOnly(day)); err != nil {
		return nil, err
	}
	return &window, nil
}

// FindSlotMode loads the row governing (window, pool, weekday, slot).
func (r *PolicyRepository) FindSlotMode(ctx context.Context, windowID string, poolID, weekday int, slot models.Slot) (*models.SlotModeRow, error) {
	const query = `SELECT id, window_id, pool_id, weekday, slot_start, slot_end, mode, performance_cap, general_cap
FROM slot_modes
WHERE window_id = $1 AND pool_id = $2 AND weekday = $3 AND slot_start = $4 AND slot_end = $5`
	var row models.SlotModeRow
	if err := r.db.GetContext(ctx, &row, query, windowID, poolID, weekday, slot.Start, slot.End); err != nil {
		return nil, err
	}
	return &row, nil
}

// ListSlotModes returns every row of a window on one weekday, ordered by pool then slot start.
func (r *PolicyRepository) ListSlotModes(ctx context.Context, windowID string, weekday int) ([]models.SlotModeRow, error) {
	const query = `SELECT id, window_id, pool_id, weekday, slot_start, slot_end, mode, performance_cap, general_cap
FROM slot_modes
WHERE window_id = $1 AND weekday = $2
ORDER BY pool_id ASC, slot_start ASC`
	var rows []models.SlotModeRow
	if err := r.db.SelectContext(ctx, &rows, query, windowID, weekday); err != nil {
		return nil, fmt.Errorf("list slot modes: %w", err)
	}
	return rows, nil
}

// ListExceptions returns exception windows of a pool intersecting [start, end).
func (r *PolicyRepository) ListExceptions(ctx context.Context, poolID int, start, end time.Time) ([]models.ExceptionWindow, error) {
	const query = `SELECT id, pool_id, starts_at, ends_at, reason FROM exception_windows
WHERE pool_id = $1 AND starts_at < $3 AND ends_at > $2
ORDER BY starts_at ASC`
	var windows []models.ExceptionWindow
	if err := r.db.SelectContext(ctx, &windows, query, poolID, start, end); err != nil {
		return nil, fmt.Errorf("list exception windows: %w", err)
	}
	return windows, nil
}

// UpsertWindow stores a policy window keyed by name.
func (r *PolicyRepository) UpsertWindow(ctx context.Context, exec sqlx.ExtContext, window *models.PolicyWindow) error {
	if window.ID == "" {
		window.ID = uuid.NewString()
	}
	if window.CreatedAt.IsZero() {
		window.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO policy_windows (id, name, profile, start_date, end_date, created_at)
VALUES (:id, :name, :profile, :start_date, :end_date, :created_at)
ON CONFLICT (name) DO UPDATE
SET profile = EXCLUDED.profile,
    start_date = EXCLUDED.start_date,
    end_date = EXCLUDED.end_date
RETURNING id`
	rows, err := sqlx.NamedQueryContext(ctx, r.exec(exec), query, window)
	if err != nil {
		return fmt.Errorf("upsert policy window: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&window.ID); err != nil {
			return fmt.Errorf("scan policy window id: %w", err)
		}
	}
	return rows.Err()
}

// UpsertSlotModes writes a batch of matrix rows for a window.
func (r *PolicyRepository) UpsertSlotModes(ctx context.Context, exec sqlx.ExtContext, rows []models.SlotModeRow) error {
	if len(rows) == 0 {
		return nil
	}
	target := r.exec(exec)
	const query = `INSERT INTO slot_modes (id, window_id, pool_id, weekday, slot_start, slot_end, mode, performance_cap, general_cap)
VALUES (:id, :window_id, :pool_id, :weekday, :slot_start, :slot_end, :mode, :performance_cap, :general_cap)
ON CONFLICT (window_id, pool_id, weekday, slot_start, slot_end) DO UPDATE
SET mode = EXCLUDED.mode,
    performance_cap = EXCLUDED.performance_cap,
    general_cap = EXCLUDED.general_cap`
	for i := range rows {
		row := &rows[i]
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, row); err != nil {
			return fmt.Errorf("upsert slot mode: %w", err)
		}
	}
	return nil
}

// CreateException stores an ad-hoc blocking window.
func (r *PolicyRepository) CreateException(ctx context.Context, window *models.ExceptionWindow) error {
	if window.ID == "" {
		window.ID = uuid.NewString()
	}
	const query = `INSERT INTO exception_windows (id, pool_id, starts_at, ends_at, reason)
VALUES (:id, :pool_id, :starts_at, :ends_at, :reason)`
	if _, err := r.db.NamedExecContext(ctx, query, window); err != nil {
		return fmt.Errorf("create exception window: %w", err)
	}
	return nil
}
