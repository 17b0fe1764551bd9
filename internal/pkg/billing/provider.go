package billing

import "context"

// Provider is the subset of the payment provider API used by billing.
type Provider interface {
	CreateCustomer(ctx context.Context, in CustomerInput) (string, error)
	// CustomerExists reports false for missing and deleted customers.
	CustomerExists(ctx context.Context, customerID string) (bool, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	// ListSubscriptions returns the customer's subscriptions in every status.
	ListSubscriptions(ctx context.Context, customerID string) ([]Subscription, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	CreateCheckoutSession(ctx context.Context, in CheckoutInput) (*CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	GetSchedule(ctx context.Context, scheduleID string) (*Schedule, error)
	CreateScheduleFromSubscription(ctx context.Context, subscriptionID string) (*Schedule, error)
	UpdateSchedule(ctx context.Context, scheduleID string, in ScheduleUpdate) (*Schedule, error)
	ParseWebhook(payload []byte, signature string) (Event, error)
}
