package billing

import (
	"strings"
	"time"

	"github.com/ManuelReschke/Urlsy/app/models"
)

// statusRank orders subscription statuses from most to least preferred when a
// customer has several subscriptions. Statuses not listed rank below all of them.
var statusRank = []string{
	models.SubscriptionStatusActive,
	models.SubscriptionStatusTrialing,
	models.SubscriptionStatusPastDue,
	models.SubscriptionStatusIncomplete,
	models.SubscriptionStatusPaused,
	models.SubscriptionStatusUnpaid,
	models.SubscriptionStatusCanceled,
}

func rankOf(status string) int {
	s := strings.ToLower(strings.TrimSpace(status))
	for i, candidate := range statusRank {
		if candidate == s {
			return len(statusRank) - i
		}
	}
	return 0
}

func isEntitlingStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case models.SubscriptionStatusActive, models.SubscriptionStatusTrialing, models.SubscriptionStatusPastDue:
		return true
	default:
		return false
	}
}

// DerivePlan returns PRO for entitling subscriptions unless they were set to
// cancel at period end and that period is already over.
func DerivePlan(sub Subscription, now time.Time) string {
	if !isEntitlingStatus(sub.Status) {
		return models.PlanFree
	}
	if sub.CancelAtPeriodEnd && sub.CurrentPeriodEnd != nil && sub.CurrentPeriodEnd.Before(now) {
		return models.PlanFree
	}
	return models.PlanPro
}

// BestSubscription picks the highest ranked subscription, preferring the most
// recently created on equal rank. It returns nil for an empty list.
func BestSubscription(subs []Subscription) *Subscription {
	var best *Subscription
	for i := range subs {
		candidate := &subs[i]
		if best == nil {
			best = candidate
			continue
		}
		cr, br := rankOf(candidate.Status), rankOf(best.Status)
		if cr > br || (cr == br && candidate.Created.After(best.Created)) {
			best = candidate
		}
	}
	return best
}
