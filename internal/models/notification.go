package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Notification types emitted by the booking workflows.
const (
	NotifyChangeSubmitted = "change_request_submitted"
	NotifyChangeDecided   = "change_request_decided"
)

// NotificationChannel selects delivery.
type NotificationChannel string

const (
	ChannelInApp NotificationChannel = "inapp"
	ChannelEmail NotificationChannel = "email"
)

// Notification is a persisted message for a recipient.
type Notification struct {
	ID        string              `db:"id" json:"id"`
	Recipient string              `db:"recipient" json:"recipient"`
	Type      string              `db:"type" json:"type"`
	Payload   types.JSONText      `db:"payload" json:"payload"`
	Channel   NotificationChannel `db:"channel" json:"channel"`
	CreatedAt time.Time           `db:"created_at" json:"createdAt"`
}
