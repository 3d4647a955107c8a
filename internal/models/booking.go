package models

import (
	"time"

	"github.com/lib/pq"
)

// InstanceStatus tracks a dated booking instance through approval.
type InstanceStatus string

const (
	InstanceDraft    InstanceStatus = "draft"
	InstancePending  InstanceStatus = "pending"
	InstanceApproved InstanceStatus = "approved"
)

// BookingRequest is a recurring booking pattern owned by a practitioner.
type BookingRequest struct {
	ID        string         `db:"id" json:"id"`
	OwnerID   string         `db:"owner_id" json:"ownerId"`
	GroupID   *string        `db:"group_id" json:"groupId,omitempty"`
	StartDate time.Time      `db:"start_date" json:"startDate"`
	EndDate   time.Time      `db:"end_date" json:"endDate"`
	Weekdays  pq.Int64Array  `db:"weekdays" json:"weekdays"`
	SlotStart string         `db:"slot_start" json:"slotStart"`
	SlotEnd   string         `db:"slot_end" json:"slotEnd"`
	PoolKey   string         `db:"pool_key" json:"pool"`
	Headcount int            `db:"headcount" json:"headcount"`
	Notes     string         `db:"notes" json:"notes"`
	Resources pq.Int64Array  `db:"resources" json:"resources"`
	Areas     pq.StringArray `db:"areas" json:"areas"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}

// Slot returns the request's slot bounds.
func (r BookingRequest) Slot() Slot {
	return Slot{Start: r.SlotStart, End: r.SlotEnd}
}

// BookingInstance is one dated materialisation of a booking request.
type BookingInstance struct {
	ID        string         `db:"id" json:"id"`
	RequestID string         `db:"request_id" json:"requestId"`
	Date      time.Time      `db:"date" json:"date"`
	SlotStart string         `db:"slot_start" json:"slotStart"`
	SlotEnd   string         `db:"slot_end" json:"slotEnd"`
	PoolKey   string         `db:"pool_key" json:"pool"`
	Status    InstanceStatus `db:"status" json:"status"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

// Slot returns the instance's slot bounds.
func (i BookingInstance) Slot() Slot {
	return Slot{Start: i.SlotStart, End: i.SlotEnd}
}

// RequestPatch is a partial update of a booking request; nil fields are untouched.
type RequestPatch struct {
	Headcount *int
	Notes     *string
	Areas     []string
}

// Empty reports whether the patch changes nothing.
func (p RequestPatch) Empty() bool {
	return p.Headcount == nil && p.Notes == nil && p.Areas == nil
}

// InstanceWithRequest joins an instance with fields of its owning request for admin listings.
type InstanceWithRequest struct {
	BookingInstance
	OwnerID   string        `db:"owner_id" json:"ownerId"`
	GroupID   *string       `db:"group_id" json:"groupId,omitempty"`
	Headcount int           `db:"headcount" json:"headcount"`
	Notes     string        `db:"notes" json:"notes"`
	Resources pq.Int64Array `db:"resources" json:"resources"`
}
