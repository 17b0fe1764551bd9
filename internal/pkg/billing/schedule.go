package billing

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/Urlsy/internal/pkg/logger"
)

const scheduleEndBehaviorRelease = "release"

// ScheduleResult describes a scheduled monthly to yearly switch
type ScheduleResult struct {
	ScheduleID  string
	EffectiveAt time.Time
}

// ScheduleYearlyUpgrade moves an active monthly subscription to the yearly
// price at the end of its current period, without proration. The provider
// state is read and then updated in two calls; a price change in between is
// not detected.
func (s *Service) ScheduleYearlyUpgrade(ctx context.Context, accountID uint) (ScheduleResult, error) {
	if err := s.configured(); err != nil {
		return ScheduleResult{}, err
	}
	if s.prices.Monthly == "" || s.prices.Yearly == "" {
		return ScheduleResult{}, ErrPriceNotConfigured
	}

	local, err := s.repo.GetSubscription(ctx, accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ScheduleResult{}, ErrNotOnMonthly
	}
	if err != nil {
		return ScheduleResult{}, err
	}
	if local.SubscriptionID() == "" || local.StripePriceID == "" {
		return ScheduleResult{}, ErrNotOnMonthly
	}
	if !isEntitlingStatus(local.Status) || local.StripePriceID != s.prices.Monthly {
		return ScheduleResult{}, ErrNotOnMonthly
	}

	sub, err := s.provider.GetSubscription(ctx, local.SubscriptionID())
	if err != nil {
		return ScheduleResult{}, err
	}

	now := s.now()
	switch {
	case sub.PriceID == "":
		return ScheduleResult{}, ErrSubscriptionMissingPrice
	case sub.PriceID == s.prices.Yearly:
		return ScheduleResult{}, ErrAlreadyYearly
	case sub.PriceID != s.prices.Monthly:
		return ScheduleResult{}, ErrNotOnMonthly
	case sub.CurrentPeriodEnd == nil:
		return ScheduleResult{}, ErrMissingPeriod
	case !sub.CurrentPeriodEnd.After(now):
		return ScheduleResult{}, ErrPeriodAlreadyEnded
	}
	periodEnd := sub.CurrentPeriodEnd.UTC()

	schedule, err := s.liveSchedule(ctx, sub)
	if err != nil {
		return ScheduleResult{}, err
	}
	start := schedule.CurrentPhaseStart
	if start.IsZero() {
		start = now
	}

	updated, err := s.provider.UpdateSchedule(ctx, schedule.ID, ScheduleUpdate{
		EndBehavior: scheduleEndBehaviorRelease,
		Phases: []SchedulePhase{
			{PriceID: s.prices.Monthly, Start: start.UTC(), End: &periodEnd},
			{PriceID: s.prices.Yearly},
		},
	})
	if err != nil {
		s.metrics.BillingOperation("upgrade_yearly", "error")
		return ScheduleResult{}, err
	}

	s.metrics.BillingOperation("upgrade_yearly", "ok")
	logger.Event("billing_upgrade_scheduled").
		Uint("user_id", accountID).
		Str("schedule_id", updated.ID).
		Time("effective_at", periodEnd).
		Msg("yearly upgrade scheduled")
	return ScheduleResult{ScheduleID: updated.ID, EffectiveAt: periodEnd}, nil
}

// liveSchedule returns the schedule attached to the subscription, or a new one
// when there is none or the attached one has already let go of the subscription.
func (s *Service) liveSchedule(ctx context.Context, sub *Subscription) (*Schedule, error) {
	if sub.ScheduleID != "" {
		existing, err := s.provider.GetSchedule(ctx, sub.ScheduleID)
		if err != nil && !errors.Is(err, ErrResourceMissing) {
			return nil, err
		}
		if err == nil && existing.Live() {
			return existing, nil
		}
	}
	return s.provider.CreateScheduleFromSubscription(ctx, sub.ID)
}
