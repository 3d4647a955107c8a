package models

import "time"

// PolicyProfile tags a policy window.
type PolicyProfile string

const (
	ProfileTerm     PolicyProfile = "term"
	ProfileVacation PolicyProfile = "vacation"
)

// SlotMode governs which booking kinds a slot accepts.
type SlotMode string

const (
	ModePerformanceOnly SlotMode = "PERFORMANCE_ONLY"
	ModeHybrid          SlotMode = "HYBRID"
	ModeGeneralOnly     SlotMode = "GENERAL_ONLY"
	ModeTeachingBlock   SlotMode = "TEACHING_BLOCK"
)

// Valid reports whether the mode is one of the known values.
func (m SlotMode) Valid() bool {
	switch m {
	case ModePerformanceOnly, ModeHybrid, ModeGeneralOnly, ModeTeachingBlock:
		return true
	}
	return false
}

// PolicyWindow is a dated range with an active slot-mode catalog.
type PolicyWindow struct {
	ID        string        `db:"id" json:"id"`
	Name      string        `db:"name" json:"name"`
	Profile   PolicyProfile `db:"profile" json:"profile"`
	StartDate time.Time     `db:"start_date" json:"startDate"`
	EndDate   time.Time     `db:"end_date" json:"endDate"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
}

// Covers reports whether the window contains the calendar day.
func (w PolicyWindow) Covers(day time.Time) bool {
	d := DateOnly(day)
	return !d.Before(DateOnly(w.StartDate)) && !d.After(DateOnly(w.EndDate))
}

// SlotModeRow governs one (window, pool, weekday, slot) cell of the matrix.
type SlotModeRow struct {
	ID             string   `db:"id" json:"id"`
	WindowID       string   `db:"window_id" json:"windowId"`
	PoolID         int      `db:"pool_id" json:"poolId"`
	Weekday        int      `db:"weekday" json:"weekday"`
	SlotStart      string   `db:"slot_start" json:"slotStart"`
	SlotEnd        string   `db:"slot_end" json:"slotEnd"`
	Mode           SlotMode `db:"mode" json:"mode"`
	PerformanceCap *int     `db:"performance_cap" json:"performanceCap"`
	GeneralCap     *int     `db:"general_cap" json:"generalCap"`
}

// ExceptionWindow blocks a pool for an ad-hoc timestamp range.
type ExceptionWindow struct {
	ID       string    `db:"id" json:"id"`
	PoolID   int       `db:"pool_id" json:"poolId"`
	StartsAt time.Time `db:"starts_at" json:"startsAt"`
	EndsAt   time.Time `db:"ends_at" json:"endsAt"`
	Reason   string    `db:"reason" json:"reason"`
}

// Overlaps reports a non-empty intersection with [start, end).
func (e ExceptionWindow) Overlaps(start, end time.Time) bool {
	return e.StartsAt.Before(end) && e.EndsAt.After(start)
}
