package models

import "time"

// LockPeriod freezes one calendar week starting at WeekStart (Monday, UTC).
type LockPeriod struct {
	ID        string    `db:"id" json:"id"`
	WeekStart time.Time `db:"week_start" json:"weekStart"`
	LockedAt  time.Time `db:"locked_at" json:"lockedAt"`
	Note      string    `db:"note" json:"note"`
}

// Contains reports whether the day falls inside the 7-day span.
func (l LockPeriod) Contains(day time.Time) bool {
	d := DateOnly(day)
	start := DateOnly(l.WeekStart)
	return !d.Before(start) && d.Before(start.AddDate(0, 0, 7))
}

// LockRunResult is the outcome of one weekly-lock invocation.
type LockRunResult struct {
	Created   bool       `json:"created"`
	Skipped   bool       `json:"skipped"`
	Reason    string     `json:"reason,omitempty"`
	LockID    string     `json:"lockId,omitempty"`
	WeekStart *time.Time `json:"weekStart,omitempty"`
}
