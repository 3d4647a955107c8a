package dto

import (
	"github.com/noah-isme/rackbook-api/internal/models"
)

// CreateBookingRequest is the draft payload for a recurring booking.
type CreateBookingRequest struct {
	GroupID   *string  `json:"groupId"`
	StartDate string   `json:"start" validate:"required,datetime=2006-01-02"`
	EndDate   string   `json:"end" validate:"required,datetime=2006-01-02"`
	Weekdays  []int    `json:"dow" validate:"required,min=1,unique,dive,min=1,max=7"`
	SlotStart string   `json:"slotStart" validate:"required,datetime=15:04"`
	SlotEnd   string   `json:"slotEnd" validate:"required,datetime=15:04"`
	Pool      string   `json:"pool" validate:"required,oneof=Power Base"`
	Headcount int      `json:"headcount" validate:"min=0"`
	Resources []int    `json:"resources" validate:"omitempty,unique,dive,min=1"`
	Areas     []string `json:"areas"`
	Notes     string   `json:"notes" validate:"max=2000"`
}

// ExpandResponse reports how many instances were materialised.
type ExpandResponse struct {
	Created int `json:"created"`
}

// AvailabilityCheckRequest selects the request to evaluate.
type AvailabilityCheckRequest struct {
	RequestID string `json:"requestId" validate:"required"`
}

// AvailabilityCheckResponse lists per-instance results in ascending date order.
type AvailabilityCheckResponse struct {
	RequestID string                      `json:"requestId"`
	Results   []models.AvailabilityResult `json:"results"`
}

// ApprovalScope selects whether one instance or its whole same-slot series is approved.
type ApprovalScope string

const (
	ApprovalSingle ApprovalScope = "instance"
	ApprovalBlock  ApprovalScope = "block"
)

// ApproveRequest optionally overrides the request's resources.
type ApproveRequest struct {
	ApplyTo   ApprovalScope `json:"applyTo" validate:"omitempty,oneof=instance block"`
	Resources []int         `json:"resources" validate:"omitempty,unique,dive,min=1"`
}

// ApproveResponse reports allocations written and per-sibling failures.
type ApproveResponse struct {
	Approved    int                 `json:"approved"`
	Failed      int                 `json:"failed"`
	Allocations []models.Allocation `json:"allocations"`
}

// InstancePatch is a direct edit of an instance's booking fields.
type InstancePatch struct {
	Resources []int    `json:"resources" validate:"omitempty,unique,dive,min=1"`
	Headcount *int     `json:"headcount" validate:"omitempty,min=0"`
	Notes     *string  `json:"notes" validate:"omitempty,max=2000"`
	Areas     []string `json:"areas"`
}

// RequestPatch converts to the repository patch.
func (p InstancePatch) RequestPatch() models.RequestPatch {
	return models.RequestPatch{Headcount: p.Headcount, Notes: p.Notes, Areas: p.Areas}
}

// AdminBuckets groups instances awaiting admin attention.
type AdminBuckets struct {
	NewDrafts           []models.InstanceWithRequest `json:"newDrafts"`
	ManualNeeded        []models.InstanceWithRequest `json:"manualNeeded"`
	OverridesInsideLock []models.InstanceWithRequest `json:"overridesInsideLock"`
}

// SubmitChangeRequest proposes a mutation against a locked or approved instance.
type SubmitChangeRequest struct {
	InstanceID string               `json:"instanceId" validate:"required"`
	Reason     string               `json:"reason" validate:"max=2000"`
	Payload    models.ChangePayload `json:"payload"`
}

// DecideChangeRequest records an admin decision.
type DecideChangeRequest struct {
	Approve *bool  `json:"approve" validate:"required"`
	Note    string `json:"reason" validate:"max=2000"`
}

// DecideChangeResponse reports the outcome and any allocation written.
type DecideChangeResponse struct {
	ID            string             `json:"id"`
	Approved      bool               `json:"approved"`
	NewAllocation *models.Allocation `json:"newAllocation,omitempty"`
}

// RunLockRequest optionally pins the evaluation instant.
type RunLockRequest struct {
	Now *string `json:"now" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// MarkAddedRequest flags instances as copied into the external sheet.
type MarkAddedRequest struct {
	InstanceIDs []string `json:"instanceIds" validate:"required,min=1,dive,required"`
}

// KioskTokenRequest names the kiosk display a token is issued for.
type KioskTokenRequest struct {
	KioskID string `json:"kioskId" validate:"required,max=64"`
}

// KioskTokenResponse carries the signed stream token.
type KioskTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}
