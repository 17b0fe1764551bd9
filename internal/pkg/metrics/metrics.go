package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the product counters. A nil *Metrics is valid and records
// nothing, so services can be built without a registry in tests.
type Metrics struct {
	redirects     *prometheus.CounterVec
	clicks        *prometheus.CounterVec
	linksCreated  *prometheus.CounterVec
	rateLimited   *prometheus.CounterVec
	webhookEvents *prometheus.CounterVec
	billingOps    *prometheus.CounterVec
}

// New registers the product metrics on the provided registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "urlsy_redirects_total",
			Help: "Short link redirect lookups by result.",
		}, []string{"result"}),
		clicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "urlsy_clicks_total",
			Help: "Redirect clicks by tracking outcome.",
		}, []string{"outcome"}),
		linksCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "urlsy_links_created_total",
			Help: "Short links created by source.",
		}, []string{"source"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "urlsy_rate_limited_total",
			Help: "Requests rejected by the fixed window rate limiter.",
		}, []string{"endpoint"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "urlsy_billing_webhook_events_total",
			Help: "Stripe webhook deliveries by event type and outcome.",
		}, []string{"type", "outcome"}),
		billingOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "urlsy_billing_operations_total",
			Help: "Billing API operations by name and outcome.",
		}, []string{"operation", "outcome"}),
	}
	reg.MustRegister(m.redirects, m.clicks, m.linksCreated, m.rateLimited, m.webhookEvents, m.billingOps)
	return m
}

func (m *Metrics) Redirect(result string) {
	if m == nil || m.redirects == nil {
		return
	}
	m.redirects.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *Metrics) Click(outcome string) {
	if m == nil || m.clicks == nil {
		return
	}
	m.clicks.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *Metrics) LinkCreated(source string) {
	if m == nil || m.linksCreated == nil {
		return
	}
	m.linksCreated.WithLabelValues(normalizeLabel(source)).Inc()
}

func (m *Metrics) RateLimited(endpoint string) {
	if m == nil || m.rateLimited == nil {
		return
	}
	m.rateLimited.WithLabelValues(normalizeLabel(endpoint)).Inc()
}

func (m *Metrics) WebhookEvent(eventType, outcome string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

func (m *Metrics) BillingOperation(operation, outcome string) {
	if m == nil || m.billingOps == nil {
		return
	}
	m.billingOps.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// Handler exposes the gatherer in the Prometheus text format as a Fiber handler.
func Handler(g prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
