package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/rackbook-api/internal/models"
	appErrors "github.com/noah-isme/rackbook-api/pkg/errors"
)

const autoLockNote = "Auto lock"

type lockWriter interface {
	CreateIfAbsent(ctx context.Context, lock *models.LockPeriod) (bool, error)
	FindByWeekStart(ctx context.Context, weekStart time.Time) (*models.LockPeriod, error)
}

// LockService creates the weekly lock for the following week.
type LockService struct {
	repo    lockWriter
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewLockService constructs the service.
func NewLockService(repo lockWriter, metrics *MetricsService, logger *zap.Logger) *LockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LockService{repo: repo, metrics: metrics, logger: logger, now: time.Now}
}

// IsLockMoment reports whether now falls in the Thursday 00:xx UTC trigger hour.
func IsLockMoment(now time.Time) bool {
	u := now.UTC()
	return u.Weekday() == time.Thursday && u.Hour() == 0
}

// NextMonday returns Monday 00:00 UTC of the week after now.
func NextMonday(now time.Time) time.Time {
	d := models.DateOnly(now)
	return d.AddDate(0, 0, 8-models.ISOWeekday(d))
}

// RunWeeklyLock is a no-op outside the trigger moment and idempotent inside it.
func (s *LockService) RunWeeklyLock(ctx context.Context, now time.Time) (*models.LockRunResult, error) {
	if !IsLockMoment(now) {
		s.metrics.RecordLockRun("skipped")
		return &models.LockRunResult{Skipped: true, Reason: "not lock moment"}, nil
	}
	weekStart := NextMonday(now)
	lock := &models.LockPeriod{WeekStart: weekStart, LockedAt: s.now().UTC(), Note: autoLockNote}
	created, err := s.repo.CreateIfAbsent(ctx, lock)
	if err != nil {
		s.metrics.RecordLockRun("failed")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lock period")
	}
	if !created {
		s.metrics.RecordLockRun("skipped")
		result := &models.LockRunResult{Skipped: true, Reason: "already locked", WeekStart: &weekStart}
		if existing, err := s.repo.FindByWeekStart(ctx, weekStart); err == nil {
			result.LockID = existing.ID
		} else {
			s.logger.Debug("existing lock lookup failed", zap.Error(err))
		}
		return result, nil
	}
	s.metrics.RecordLockRun("created")
	s.logger.Sugar().Infow("week locked", "week_start", weekStart.Format(models.DateLayout), "lock_id", lock.ID)
	return &models.LockRunResult{Created: true, LockID: lock.ID, WeekStart: &weekStart}, nil
}

// StartTicker runs the weekly lock on every interval tick until ctx is cancelled.
func (s *LockService) StartTicker(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.RunWeeklyLock(ctx, s.now()); err != nil {
					s.logger.Sugar().Warnw("weekly lock run failed", "error", err)
				}
			}
		}
	}()
}
