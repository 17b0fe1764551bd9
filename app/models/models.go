package models

// AllModels lists every persisted model in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&ProviderAccount{},
		&Subscription{},
		&BillingEvent{},
		&Link{},
		&LinkClick{},
		&UsageMonthly{},
		&RateLimitBucket{},
	}
}
