package models

import (
	"time"

	"github.com/lib/pq"
)

// AllocationStatus is the hold state of an allocation.
type AllocationStatus string

const (
	AllocationApproved    AllocationStatus = "approved"
	AllocationPending     AllocationStatus = "pending"
	AllocationProvisional AllocationStatus = "provisional"
	// AllocationWithdrawn exists in the schema but no flow writes it yet.
	AllocationWithdrawn AllocationStatus = "withdrawn"
)

// TakenStatuses are the allocation states that occupy resources.
var TakenStatuses = []AllocationStatus{AllocationApproved, AllocationPending, AllocationProvisional}

// Allocation is the resource set actually held for one booking instance.
type Allocation struct {
	ID         string           `db:"id" json:"id"`
	InstanceID string           `db:"instance_id" json:"instanceId"`
	PoolID     int              `db:"pool_id" json:"poolId"`
	Resources  pq.Int64Array    `db:"resources" json:"resources"`
	Status     AllocationStatus `db:"status" json:"status"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updatedAt"`
}

// SyncStatus is the external-system acknowledgement state.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncAdded   SyncStatus = "added"
)

// SyncMark records whether an approved instance was copied into the external booking sheet.
type SyncMark struct {
	InstanceID string     `db:"instance_id" json:"instanceId"`
	Status     SyncStatus `db:"status" json:"status"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
}

// WorklistFilter narrows the approved-booking worklist.
// An empty Sync matches every row; SlotStart/SlotEnd restrict to one exact slot when set.
type WorklistFilter struct {
	From      time.Time
	To        time.Time
	PoolKey   string
	SlotStart string
	SlotEnd   string
	Sync      SyncStatus
}

// WorklistRow is an approved instance with its held resources and sync state.
type WorklistRow struct {
	InstanceID string         `db:"instance_id" json:"instanceId"`
	RequestID  string         `db:"request_id" json:"requestId"`
	Date       time.Time      `db:"date" json:"date"`
	SlotStart  string         `db:"slot_start" json:"slotStart"`
	SlotEnd    string         `db:"slot_end" json:"slotEnd"`
	PoolKey    string         `db:"pool_key" json:"pool"`
	OwnerID    string         `db:"owner_id" json:"ownerId"`
	GroupID    *string        `db:"group_id" json:"groupId,omitempty"`
	Headcount  int            `db:"headcount" json:"headcount"`
	Notes      string         `db:"notes" json:"notes"`
	Areas      pq.StringArray `db:"areas" json:"areas"`
	Resources  pq.Int64Array  `db:"resources" json:"resources"`
	Sync       SyncStatus     `db:"sync_status" json:"sync"`
}
