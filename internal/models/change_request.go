package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ChangeRequestStatus captures workflow states for change requests.
type ChangeRequestStatus string

const (
	ChangeRequestPending  ChangeRequestStatus = "pending"
	ChangeRequestApproved ChangeRequestStatus = "approved"
	ChangeRequestRejected ChangeRequestStatus = "rejected"
)

// ChangePayload is the proposed mutation carried by a change request.
// A nil slice means the field was absent; an empty slice clears it.
type ChangePayload struct {
	Resources []int    `json:"resources" validate:"omitempty,unique,dive,min=1"`
	Headcount *int     `json:"headcount,omitempty" validate:"omitempty,min=0"`
	Notes     *string  `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Areas     []string `json:"areas"`
}

// RequestPatch extracts the booking-request part of the payload.
func (p ChangePayload) RequestPatch() RequestPatch {
	return RequestPatch{Headcount: p.Headcount, Notes: p.Notes, Areas: p.Areas}
}

// ChangeRequest proposes a payload mutation against a locked or approved instance.
type ChangeRequest struct {
	ID           string              `db:"id" json:"id"`
	InstanceID   string              `db:"instance_id" json:"instanceId"`
	RequestedBy  string              `db:"requested_by" json:"requestedBy"`
	Reason       string              `db:"reason" json:"reason"`
	Payload      types.JSONText      `db:"payload" json:"payload"`
	Status       ChangeRequestStatus `db:"status" json:"status"`
	DecidedBy    *string             `db:"decided_by" json:"decidedBy,omitempty"`
	DecidedAt    *time.Time          `db:"decided_at" json:"decidedAt,omitempty"`
	DecisionNote *string             `db:"decision_note" json:"decisionNote,omitempty"`
	CreatedAt    time.Time           `db:"created_at" json:"createdAt"`
}

// DecodePayload parses the stored payload.
func (c ChangeRequest) DecodePayload() (ChangePayload, error) {
	var p ChangePayload
	if len(c.Payload) == 0 {
		return p, nil
	}
	err := json.Unmarshal(c.Payload, &p)
	return p, err
}

// ChangeQueueItem is a pending change request joined with its instance.
type ChangeQueueItem struct {
	ChangeRequest
	Date      time.Time `db:"date" json:"date"`
	PoolKey   string    `db:"pool_key" json:"pool"`
	SlotStart string    `db:"slot_start" json:"slotStart"`
	SlotEnd   string    `db:"slot_end" json:"slotEnd"`
}
