package models

import "time"

const (
	BillingEventReceived  = "received"
	BillingEventProcessed = "processed"
	BillingEventFailed    = "failed"
)

// BillingEvent records a Stripe webhook delivery keyed by the Stripe event id.
// Processed rows are terminal; failed rows are reset to received on redelivery.
type BillingEvent struct {
	ID           string     `gorm:"primaryKey;type:varchar(191)" json:"id"`
	Type         string     `gorm:"type:varchar(100);not null;index" json:"type"`
	Status       string     `gorm:"type:varchar(16);not null;default:'received';index" json:"status"`
	ErrorMessage string     `gorm:"type:text" json:"error_message"`
	Attempts     int        `gorm:"not null;default:0" json:"attempts"`
	ProcessedAt  *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
