package billing

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"
)

// CreateCheckout opens a hosted checkout for the PRO price of the interval
// and returns its URL. appURL is the public base URL without trailing slash.
func (s *Service) CreateCheckout(ctx context.Context, accountID uint, interval Interval, appURL string) (string, error) {
	if err := s.configured(); err != nil {
		return "", err
	}
	priceID := s.prices.For(interval)
	if priceID == "" {
		return "", ErrPriceNotConfigured
	}

	user, err := s.findUser(ctx, accountID)
	if err != nil {
		return "", err
	}

	if err := s.checkNotSubscribed(ctx, accountID, interval); err != nil {
		return "", err
	}

	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		s.metrics.BillingOperation("checkout", "error")
		return "", err
	}

	ref := strconv.FormatUint(uint64(user.ID), 10)
	session, err := s.provider.CreateCheckoutSession(ctx, CheckoutInput{
		CustomerID:        customerID,
		PriceID:           priceID,
		SuccessURL:        appURL + "/dashboard/billing?status=success&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         appURL + "/dashboard/billing?status=cancel",
		ClientReferenceID: ref,
		Metadata: map[string]string{
			metadataUserID: ref,
			"interval":     string(interval),
		},
	})
	if err != nil {
		s.metrics.BillingOperation("checkout", "error")
		return "", err
	}
	if session.URL == "" {
		return "", ErrCheckoutURLMissing
	}

	s.metrics.BillingOperation("checkout", "ok")
	return session.URL, nil
}

// checkNotSubscribed rejects checkouts that would duplicate an active
// subscription. Monthly subscribers switch to yearly through ScheduleYearlyUpgrade.
func (s *Service) checkNotSubscribed(ctx context.Context, accountID uint, interval Interval) error {
	sub, err := s.repo.GetSubscription(ctx, accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !isEntitlingStatus(sub.Status) {
		return nil
	}

	onMonthly := sub.StripePriceID != "" && sub.StripePriceID == s.prices.Monthly
	onYearly := sub.StripePriceID != "" && sub.StripePriceID == s.prices.Yearly
	switch {
	case interval == IntervalMonth && onMonthly:
		return ErrAlreadySubscribedMonthly
	case interval == IntervalYear && onMonthly:
		return ErrAlreadyOnMonthlyUseUpgrade
	case interval == IntervalMonth && onYearly:
		return ErrAlreadySubscribedYearly
	}
	return nil
}

// CreatePortal opens the provider's customer portal for the account.
func (s *Service) CreatePortal(ctx context.Context, accountID uint, appURL string) (string, error) {
	if err := s.configured(); err != nil {
		return "", err
	}
	user, err := s.findUser(ctx, accountID)
	if err != nil {
		return "", err
	}
	if user.CustomerID() == "" {
		return "", ErrNoBillingCustomer
	}
	return s.provider.CreatePortalSession(ctx, user.CustomerID(), appURL+"/dashboard/billing")
}
