package billing

import (
	"encoding/json"
	"time"
)

// Interval is the billing period of a PRO price
type Interval string

const (
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

// Schedule statuses after which a schedule no longer controls its subscription.
const (
	ScheduleStatusReleased  = "released"
	ScheduleStatusCanceled  = "canceled"
	ScheduleStatusCompleted = "completed"
)

// Prices holds the configured Stripe price ids of the PRO plan.
type Prices struct {
	Monthly string
	Yearly  string
}

// For returns the price id of the interval or "" when not configured.
func (p Prices) For(interval Interval) string {
	switch interval {
	case IntervalMonth:
		return p.Monthly
	case IntervalYear:
		return p.Yearly
	default:
		return ""
	}
}

// Subscription is the provider-agnostic snapshot of a provider subscription.
type Subscription struct {
	ID                 string
	CustomerID         string
	Status             string
	PriceID            string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
	Created            time.Time
	ScheduleID         string
	Metadata           map[string]string
}

type CustomerInput struct {
	Email    string
	Name     string
	Metadata map[string]string
}

type CheckoutInput struct {
	CustomerID        string
	PriceID           string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	Metadata          map[string]string
}

type CheckoutSession struct {
	ID                string
	URL               string
	CustomerID        string
	SubscriptionID    string
	ClientReferenceID string
	Metadata          map[string]string
}

// AccountReference returns the local account id the session was opened for.
func (s *CheckoutSession) AccountReference() string {
	if s.ClientReferenceID != "" {
		return s.ClientReferenceID
	}
	return s.Metadata[metadataUserID]
}

type Schedule struct {
	ID                string
	Status            string
	CurrentPhaseStart time.Time
}

// Live reports whether the schedule still controls its subscription
func (s *Schedule) Live() bool {
	switch s.Status {
	case ScheduleStatusReleased, ScheduleStatusCanceled, ScheduleStatusCompleted:
		return false
	default:
		return true
	}
}

// SchedulePhase is one price phase. A zero Start keeps the provider default,
// a nil End leaves the phase open.
type SchedulePhase struct {
	PriceID string
	Start   time.Time
	End     *time.Time
}

type ScheduleUpdate struct {
	Phases      []SchedulePhase
	EndBehavior string
}

// Event is a verified webhook event with its undecoded data object.
type Event struct {
	ID   string
	Type string
	Raw  json.RawMessage
}

const metadataUserID = "userId"
