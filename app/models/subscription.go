package models

import "time"

// Raw provider subscription statuses. SubscriptionStatusNone is local only and
// marks a customer that is known to have no subscription.
const (
	SubscriptionStatusActive            = "active"
	SubscriptionStatusTrialing          = "trialing"
	SubscriptionStatusPastDue           = "past_due"
	SubscriptionStatusIncomplete        = "incomplete"
	SubscriptionStatusIncompleteExpired = "incomplete_expired"
	SubscriptionStatusPaused            = "paused"
	SubscriptionStatusUnpaid            = "unpaid"
	SubscriptionStatusCanceled          = "canceled"
	SubscriptionStatusNone              = "none"
)

// Subscription mirrors the user's Stripe subscription. There is at most one
// row per user and it is only written by the billing package.
type Subscription struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	UserID               uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	PlanTier             string     `gorm:"type:varchar(8);not null;default:'FREE'" json:"plan_tier"`
	Status               string     `gorm:"type:varchar(32);not null;index" json:"status"`
	StripeCustomerID     string     `gorm:"type:varchar(191);not null;index" json:"stripe_customer_id"`
	StripeSubscriptionID *string    `gorm:"type:varchar(191);uniqueIndex;default:null" json:"stripe_subscription_id,omitempty"`
	StripePriceID        string     `gorm:"type:varchar(191)" json:"stripe_price_id"`
	CurrentPeriodStart   *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// SubscriptionID returns the Stripe subscription id or "".
func (s *Subscription) SubscriptionID() string {
	if s.StripeSubscriptionID == nil {
		return ""
	}
	return *s.StripeSubscriptionID
}
