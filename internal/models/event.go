package models

import "time"

// Event actions written by the intake pipeline.
const (
	ActionPersisted       = "submission.persisted"
	ActionEnqueued        = "delivery.enqueued"
	ActionEnqueueFailed   = "delivery.enqueue_failed"
	ActionResendRequested = "delivery.resend_requested"
	ActionRendered        = "document.rendered"
	ActionRenderFailed    = "document.render_failed"
	ActionNotified        = "notification.sent"
	ActionNotifyFailed    = "notification.failed"
)

// Event is one stage outcome of a submission's lifecycle.
type Event struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ClientID  string    `gorm:"index;not null" json:"client_id"`
	Action    string    `gorm:"not null" json:"action"`
	Metadata  JSONB     `gorm:"type:jsonb" json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}
