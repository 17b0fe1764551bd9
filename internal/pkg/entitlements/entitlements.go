package entitlements

import (
	"time"

	"github.com/ManuelReschke/Urlsy/app/models"
)

// FREE plan limits. PRO has no limits.
const (
	FreeActiveLinkLimit           = 50
	FreeTrackedClicksMonthlyLimit = 1000
)

// IsPro reports whether the plan tier unlocks PRO features
func IsPro(plan string) bool {
	return plan == models.PlanPro
}

// CanCreateActiveLink reports whether another active link fits the plan.
func CanCreateActiveLink(plan string, activeLinks int64) bool {
	return IsPro(plan) || activeLinks < FreeActiveLinkLimit
}

// CanTrackClick reports whether another click may be recorded this month.
func CanTrackClick(plan string, trackedThisMonth int) bool {
	return IsPro(plan) || trackedThisMonth < FreeTrackedClicksMonthlyLimit
}

func CanUseAlias(plan string) bool {
	return IsPro(plan)
}

func CanUseExpiry(plan string) bool {
	return IsPro(plan)
}

func CanUseAdvancedAnalytics(plan string) bool {
	return IsPro(plan)
}

// MonthStartUTC truncates t to the first instant of its UTC calendar month.
func MonthStartUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
