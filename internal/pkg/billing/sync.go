package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ManuelReschke/Urlsy/app/models"
	"github.com/ManuelReschke/Urlsy/internal/pkg/logger"
)

// SyncResult is the plan and raw subscription status after a sync.
type SyncResult struct {
	Plan               string
	SubscriptionStatus string
}

// Sync pulls the account's subscription from the provider, for callers that
// cannot wait for the webhook. A checkout session id, when given, must belong
// to the account or ErrInvalidSession is returned before anything is written.
func (s *Service) Sync(ctx context.Context, accountID uint, sessionID string) (SyncResult, error) {
	if err := s.configured(); err != nil {
		return SyncResult{}, err
	}
	user, err := s.findUser(ctx, accountID)
	if err != nil {
		return SyncResult{}, err
	}
	customerID := user.CustomerID()

	var sub *Subscription
	if sessionID != "" {
		session, err := s.provider.GetCheckoutSession(ctx, sessionID)
		if errors.Is(err, ErrResourceMissing) {
			return SyncResult{}, ErrInvalidSession
		}
		if err != nil {
			return SyncResult{}, err
		}
		if session.AccountReference() != strconv.FormatUint(uint64(accountID), 10) {
			return SyncResult{}, ErrInvalidSession
		}

		if session.CustomerID != "" && session.CustomerID != customerID {
			if err := s.repo.SetUserCustomerID(ctx, accountID, session.CustomerID); err != nil {
				return SyncResult{}, fmt.Errorf("link customer: %w", err)
			}
			customerID = session.CustomerID
		}
		if session.SubscriptionID != "" {
			if sub, err = s.provider.GetSubscription(ctx, session.SubscriptionID); err != nil {
				return SyncResult{}, err
			}
		}
	}

	if sub == nil && customerID != "" {
		subs, err := s.provider.ListSubscriptions(ctx, customerID)
		if err != nil {
			return SyncResult{}, err
		}
		sub = BestSubscription(subs)
	}

	if sub != nil {
		res, err := s.ApplySubscription(ctx, *sub, customerID, accountID)
		if err != nil {
			return SyncResult{}, err
		}
		s.logSync(accountID, res.Plan, res.Status)
		return SyncResult{Plan: res.Plan, SubscriptionStatus: res.Status}, nil
	}

	err = s.repo.Transaction(ctx, func(repo Repository) error {
		if customerID != "" {
			row := &models.Subscription{
				UserID:           accountID,
				PlanTier:         models.PlanFree,
				Status:           models.SubscriptionStatusNone,
				StripeCustomerID: customerID,
			}
			if err := repo.UpsertSubscription(ctx, row); err != nil {
				return fmt.Errorf("upsert subscription: %w", err)
			}
		}
		return repo.SetUserPlan(ctx, accountID, models.PlanFree)
	})
	if err != nil {
		return SyncResult{}, err
	}
	s.logSync(accountID, models.PlanFree, models.SubscriptionStatusNone)
	return SyncResult{Plan: models.PlanFree, SubscriptionStatus: models.SubscriptionStatusNone}, nil
}

func (s *Service) logSync(accountID uint, plan, status string) {
	s.metrics.BillingOperation("sync", "ok")
	logger.Event("billing_sync").Uint("user_id", accountID).Str("plan", plan).Str("status", status).Msg("billing synced")
}
