package models

import "time"

// KioskAllocation is a lightweight row shown on the live dashboard.
type KioskAllocation struct {
	InstanceID string     `json:"instanceId"`
	Squad      string     `json:"squad"`
	Resources  []int      `json:"resources"`
	Sync       SyncStatus `json:"sync"`
	Notes      string     `json:"notes"`
}

// KioskPoolState is the per-pool view of the current and next slot.
type KioskPoolState struct {
	CurrentSlot        *Slot             `json:"currentSlot"`
	NextSlot           *Slot             `json:"nextSlot"`
	CurrentAllocations []KioskAllocation `json:"currentAllocations"`
}

// KioskState is the snapshot pushed to live subscribers.
type KioskState struct {
	Now   time.Time                 `json:"now"`
	Pools map[string]KioskPoolState `json:"pools"`
}
