package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rackbook-api/internal/models"
)

// LockRepository persists weekly lock periods.
type LockRepository struct {
	db *sqlx.DB
}

// NewLockRepository constructs the repository.
func NewLockRepository(db *sqlx.DB) *LockRepository {
	return &LockRepository{db: db}
}

// FindCovering returns the lock whose week contains the day, if any.
func (r *LockRepository) FindCovering(ctx context.Context, day time.Time) (*models.LockPeriod, error) {
	d := models.DateOnly(day)
	const query = `SELECT id, week_start, locked_at, note FROM lock_periods
WHERE week_start <= $1 AND week_start > $2
ORDER BY week_start DESC LIMIT 1`
	var lock models.LockPeriod
	if err := r.db.GetContext(ctx, &lock, query, d, d.AddDate(0, 0, -7)); err != nil {
		return nil, err
	}
	return &lock, nil
}

// CreateIfAbsent inserts the lock for its week start; created is false when one already existed.
func (r *LockRepository) CreateIfAbsent(ctx context.Context, lock *models.LockPeriod) (bool, error) {
	if lock.ID == "" {
		lock.ID = uuid.NewString()
	}
	if lock.LockedAt.IsZero() {
		lock.LockedAt = time.Now().UTC()
	}
	const query = `INSERT INTO lock_periods (id, week_start, locked_at, note) VALUES ($1, $2, $3, $4)
ON CONFLICT (week_start) DO NOTHING
RETURNING id`
	var id string
	err := r.db.GetContext(ctx, &id, query, lock.ID, models.DateOnly(lock.WeekStart), lock.LockedAt, lock.Note)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create lock period: %w", err)
	}
	lock.ID = id
	return true, nil
}

// FindByWeekStart loads the lock of a given Monday.
func (r *LockRepository) FindByWeekStart(ctx context.Context, weekStart time.Time) (*models.LockPeriod, error) {
	const query = `SELECT id, week_start, locked_at, note FROM lock_periods WHERE week_start = $1`
	var lock models.LockPeriod
	if err := r.db.GetContext(ctx, &lock, query, models.DateOnly(weekStart)); err != nil {
		return nil, err
	}
	return &lock, nil
}
