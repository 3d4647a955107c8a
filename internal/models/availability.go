package models

import "time"

// AvailabilityStatus classifies one instance against policy and occupancy.
type AvailabilityStatus string

const (
	AvailabilityFit      AvailabilityStatus = "FIT"
	AvailabilityPartial  AvailabilityStatus = "PARTIAL"
	AvailabilityConflict AvailabilityStatus = "CONFLICT"
)

// AvailabilityResult is the evaluation outcome for one instance.
type AvailabilityResult struct {
	InstanceID string             `json:"instanceId"`
	Date       time.Time          `json:"date"`
	SlotStart  string             `json:"slotStart"`
	SlotEnd    string             `json:"slotEnd"`
	Status     AvailabilityStatus `json:"status"`
	Reasons    []string           `json:"reasons"`
	Suggestion []int              `json:"suggestion,omitempty"`
	Occupied   []int              `json:"occupied,omitempty"`
}
