package entitlements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ManuelReschke/Urlsy/app/models"
)

func TestActiveLinkLimit(t *testing.T) {
	t.Parallel()

	assert.True(t, CanCreateActiveLink(models.PlanFree, FreeActiveLinkLimit-1))
	assert.False(t, CanCreateActiveLink(models.PlanFree, FreeActiveLinkLimit))
	assert.False(t, CanCreateActiveLink("", FreeActiveLinkLimit))
	assert.True(t, CanCreateActiveLink(models.PlanPro, 10_000))
}

func TestTrackedClickLimit(t *testing.T) {
	t.Parallel()

	assert.True(t, CanTrackClick(models.PlanFree, 999))
	assert.False(t, CanTrackClick(models.PlanFree, 1000))
	assert.True(t, CanTrackClick(models.PlanPro, 1_000_000))
}

func TestProOnlyFeatures(t *testing.T) {
	t.Parallel()

	for _, fn := range []func(string) bool{CanUseAlias, CanUseExpiry, CanUseAdvancedAnalytics} {
		assert.False(t, fn(models.PlanFree))
		assert.True(t, fn(models.PlanPro))
	}
}

func TestMonthStartUTC(t *testing.T) {
	t.Parallel()

	berlin := time.FixedZone("CET", 3600)
	in := time.Date(2026, time.March, 1, 0, 30, 0, 0, berlin) // Feb 28 23:30 UTC

	assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), MonthStartUTC(in))
}
