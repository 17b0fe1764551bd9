package billing

import (
	"testing"
	"time"

	"github.com/ManuelReschke/Urlsy/app/models"
)

func TestDerivePlan(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		sub  Subscription
		want string
	}{
		{name: "active", sub: Subscription{Status: "active"}, want: models.PlanPro},
		{name: "trialing", sub: Subscription{Status: "trialing"}, want: models.PlanPro},
		{name: "past due", sub: Subscription{Status: "past_due"}, want: models.PlanPro},
		{name: "canceled", sub: Subscription{Status: "canceled"}, want: models.PlanFree},
		{name: "incomplete", sub: Subscription{Status: "incomplete"}, want: models.PlanFree},
		{name: "unpaid", sub: Subscription{Status: "unpaid"}, want: models.PlanFree},
		{name: "paused", sub: Subscription{Status: "paused"}, want: models.PlanFree},
		{name: "cancel pending", sub: Subscription{Status: "active", CancelAtPeriodEnd: true, CurrentPeriodEnd: &future}, want: models.PlanPro},
		{name: "cancel elapsed", sub: Subscription{Status: "active", CancelAtPeriodEnd: true, CurrentPeriodEnd: &past}, want: models.PlanFree},
		{name: "cancel without period", sub: Subscription{Status: "active", CancelAtPeriodEnd: true}, want: models.PlanPro},
		{name: "elapsed without cancel", sub: Subscription{Status: "active", CurrentPeriodEnd: &past}, want: models.PlanPro},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DerivePlan(tt.sub, now); got != tt.want {
				t.Fatalf("DerivePlan() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusRankOrder(t *testing.T) {
	order := []string{"active", "trialing", "past_due", "incomplete", "paused", "unpaid", "canceled", "incomplete_expired"}
	for i := 1; i < len(order); i++ {
		if rankOf(order[i-1]) <= rankOf(order[i]) {
			t.Fatalf("expected %q to outrank %q", order[i-1], order[i])
		}
	}
	if rankOf("something_new") != 0 {
		t.Fatalf("expected unknown status to rank lowest")
	}
}

func TestBestSubscription(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if BestSubscription(nil) != nil {
		t.Fatalf("expected nil for empty list")
	}

	subs := []Subscription{
		{ID: "sub_canceled_new", Status: "canceled", Created: t0.Add(72 * time.Hour)},
		{ID: "sub_past_due", Status: "past_due", Created: t0},
		{ID: "sub_active_old", Status: "active", Created: t0},
		{ID: "sub_active_new", Status: "active", Created: t0.Add(time.Hour)},
	}
	if got := BestSubscription(subs); got.ID != "sub_active_new" {
		t.Fatalf("BestSubscription() = %q, want sub_active_new", got.ID)
	}

	subs = []Subscription{
		{ID: "sub_weird", Status: "mystery", Created: t0.Add(time.Hour)},
		{ID: "sub_canceled", Status: "canceled", Created: t0},
	}
	if got := BestSubscription(subs); got.ID != "sub_canceled" {
		t.Fatalf("BestSubscription() = %q, want sub_canceled", got.ID)
	}
}
