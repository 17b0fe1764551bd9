package analytics

import (
	"net/url"
	"sort"
	"time"

	"github.com/ManuelReschke/Urlsy/app/models"
)

// Window is the lookback period of an analytics query.
type Window string

const (
	Window7   Window = "7"
	Window30  Window = "30"
	Window90  Window = "90"
	WindowAll Window = "all"
)

const (
	topEntries = 5
	unknown    = "unknown"
	direct     = "direct"
)

// ParseWindow accepts 7, 30, 90 or all and falls back to 30 days.
func ParseWindow(v string) Window {
	switch Window(v) {
	case Window7, Window30, Window90, WindowAll:
		return Window(v)
	default:
		return Window30
	}
}

// Since returns the earliest click time included in the window, or nil for all.
func (w Window) Since(now time.Time) *time.Time {
	days := 0
	switch w {
	case Window7:
		days = 7
	case Window90:
		days = 90
	case WindowAll:
		return nil
	default:
		days = 30
	}
	since := now.UTC().AddDate(0, 0, -days)
	return &since
}

type Point struct {
	Date   string `json:"date"`
	Clicks int    `json:"clicks"`
}

type Breakdown struct {
	Name   string `json:"name"`
	Clicks int    `json:"clicks"`
}

type Response struct {
	TotalClicks    int         `json:"totalClicks"`
	UniqueVisitors int         `json:"uniqueVisitors"`
	TimeSeries     []Point     `json:"timeSeries"`
	TopReferrers   []Breakdown `json:"topReferrers"`
	TopCountries   []Breakdown `json:"topCountries"`
	TopRegions     []Breakdown `json:"topRegions"`
	TopCities      []Breakdown `json:"topCities"`
	TopDevices     []Breakdown `json:"topDevices"`
}

// Build aggregates clicks into a daily series and top-5 breakdowns.
func Build(clicks []models.LinkClick) Response {
	series := map[string]int{}
	referrers := map[string]int{}
	countries := map[string]int{}
	regions := map[string]int{}
	cities := map[string]int{}
	devices := map[string]int{}
	visitors := map[string]struct{}{}

	for _, click := range clicks {
		series[click.ClickedAt.UTC().Format("2006-01-02")]++
		referrers[ReferrerLabel(click.Referrer)]++
		countries[orUnknown(click.Country)]++
		regions[orUnknown(click.Region)]++
		cities[orUnknown(click.City)]++
		devices[orUnknown(click.DeviceType)]++
		visitors[click.IPHash] = struct{}{}
	}

	timeSeries := make([]Point, 0, len(series))
	for date, n := range series {
		timeSeries = append(timeSeries, Point{Date: date, Clicks: n})
	}
	sort.Slice(timeSeries, func(i, j int) bool { return timeSeries[i].Date < timeSeries[j].Date })

	return Response{
		TotalClicks:    len(clicks),
		UniqueVisitors: len(visitors),
		TimeSeries:     timeSeries,
		TopReferrers:   top(referrers),
		TopCountries:   top(countries),
		TopRegions:     top(regions),
		TopCities:      top(cities),
		TopDevices:     top(devices),
	}
}

// ReferrerLabel reduces a referrer URL to its host name, "direct" when absent or unparsable.
func ReferrerLabel(referrer string) string {
	if referrer == "" {
		return direct
	}
	u, err := url.Parse(referrer)
	if err != nil || u.Hostname() == "" {
		return direct
	}
	return u.Hostname()
}

func top(counts map[string]int) []Breakdown {
	out := make([]Breakdown, 0, len(counts))
	for name, n := range counts {
		out = append(out, Breakdown{Name: name, Clicks: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Clicks != out[j].Clicks {
			return out[i].Clicks > out[j].Clicks
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > topEntries {
		out = out[:topEntries]
	}
	return out
}

func orUnknown(v string) string {
	if v == "" {
		return unknown
	}
	return v
}
