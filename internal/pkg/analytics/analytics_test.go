package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/Urlsy/app/models"
)

func TestParseWindow(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Window7, ParseWindow("7"))
	assert.Equal(t, WindowAll, ParseWindow("all"))
	assert.Equal(t, Window30, ParseWindow(""))
	assert.Equal(t, Window30, ParseWindow("365"))
}

func TestWindowSince(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NotNil(t, Window7.Since(now))
	assert.Equal(t, time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC), *Window7.Since(now))
	assert.Equal(t, time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC), *Window30.Since(now))
	assert.Nil(t, WindowAll.Since(now))
}

func TestReferrerLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "direct", ReferrerLabel(""))
	assert.Equal(t, "direct", ReferrerLabel("not a url"))
	assert.Equal(t, "news.ycombinator.com", ReferrerLabel("https://news.ycombinator.com/item?id=1"))
}

func TestBuild(t *testing.T) {
	t.Parallel()

	day1 := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 0, 1, 0, 0, time.UTC)
	clicks := []models.LinkClick{
		{ClickedAt: day2, IPHash: "a", Referrer: "https://t.co/x", Country: "DE", DeviceType: "mobile"},
		{ClickedAt: day1, IPHash: "a", Referrer: "https://t.co/y", Country: "DE", DeviceType: "desktop"},
		{ClickedAt: day1, IPHash: "b", Country: "US", City: "Austin"},
	}

	res := Build(clicks)

	assert.Equal(t, 3, res.TotalClicks)
	assert.Equal(t, 2, res.UniqueVisitors)
	assert.Equal(t, []Point{{Date: "2026-03-01", Clicks: 2}, {Date: "2026-03-02", Clicks: 1}}, res.TimeSeries)
	assert.Equal(t, []Breakdown{{Name: "t.co", Clicks: 2}, {Name: "direct", Clicks: 1}}, res.TopReferrers)
	assert.Equal(t, []Breakdown{{Name: "DE", Clicks: 2}, {Name: "US", Clicks: 1}}, res.TopCountries)
	assert.Equal(t, []Breakdown{{Name: "unknown", Clicks: 3}}, res.TopRegions)
	assert.Equal(t, []Breakdown{{Name: "unknown", Clicks: 2}, {Name: "Austin", Clicks: 1}}, res.TopCities)
	assert.Equal(t, []Breakdown{{Name: "desktop", Clicks: 1}, {Name: "mobile", Clicks: 1}, {Name: "unknown", Clicks: 1}}, res.TopDevices)
}

func TestBuildKeepsTopFive(t *testing.T) {
	t.Parallel()

	var clicks []models.LinkClick
	for i := 0; i < 8; i++ {
		for j := 0; j <= i; j++ {
			clicks = append(clicks, models.LinkClick{Country: fmt.Sprintf("C%d", i), ClickedAt: time.Now()})
		}
	}

	res := Build(clicks)
	require.Len(t, res.TopCountries, 5)
	assert.Equal(t, "C7", res.TopCountries[0].Name)
	assert.Equal(t, 8, res.TopCountries[0].Clicks)
	assert.Equal(t, "C3", res.TopCountries[4].Name)
}

func TestBuildEmpty(t *testing.T) {
	t.Parallel()

	res := Build(nil)
	assert.Equal(t, 0, res.UniqueVisitors)
	assert.Empty(t, res.TimeSeries)
	assert.NotNil(t, res.TopReferrers)
}
