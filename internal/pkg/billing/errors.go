package billing

import "errors"

// Provider level errors. Provider implementations wrap their SDK errors in one
// of these so callers never depend on the SDK error types.
var (
	ErrResourceMissing = errors.New("billing_resource_missing")
	ErrProvider        = errors.New("billing_provider_error")
	ErrNotConfigured   = errors.New("billing_not_configured")
)

// Operation errors. The messages double as the API error codes.
var (
	ErrAccountNotFound            = errors.New("user_not_found")
	ErrInvalidSession             = errors.New("invalid_session")
	ErrPriceNotConfigured         = errors.New("price_not_configured")
	ErrAlreadySubscribedMonthly   = errors.New("already_subscribed_monthly")
	ErrAlreadySubscribedYearly    = errors.New("already_subscribed_yearly")
	ErrAlreadyOnMonthlyUseUpgrade = errors.New("already_on_monthly_use_upgrade_endpoint")
	ErrCheckoutURLMissing         = errors.New("checkout_url_missing")
	ErrNoBillingCustomer          = errors.New("no_billing_customer")
	ErrSubscriptionMissingPrice   = errors.New("subscription_missing_price")
	ErrAlreadyYearly              = errors.New("already_yearly")
	ErrNotOnMonthly               = errors.New("not_on_monthly")
	ErrMissingPeriod              = errors.New("missing_period")
	ErrPeriodAlreadyEnded         = errors.New("period_already_ended")
)
