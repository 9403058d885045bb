package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess  = "success"
	OutcomeProvider = "provider_error"
	OutcomeInvalid  = "invalid"
	OutcomeFailure  = "failure"
)

// CheckoutMetrics records checkout session creation against the payment provider.
type CheckoutMetrics struct {
	duration *prometheus.HistogramVec
	sessions *prometheus.CounterVec
	items    prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "indstore",
		Name:      "checkout_session_duration_seconds",
		Help:      "Latency of checkout session creation in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indstore",
		Name:      "checkout_sessions_total",
		Help:      "Checkout session requests by outcome.",
	}, []string{"outcome"})
	items := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "indstore",
		Name:      "checkout_session_line_items",
		Help:      "Number of line items per checkout session request.",
		Buckets:   []float64{1, 2, 5, 10, 25, 50},
	})
	reg.MustRegister(duration, sessions, items)
	return &CheckoutMetrics{duration: duration, sessions: sessions, items: items}
}

// Observe records one session attempt.
func (c *CheckoutMetrics) Observe(outcome string, lineItems int, took time.Duration) {
	if c == nil || c.sessions == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	c.sessions.WithLabelValues(outcome).Inc()
	c.duration.WithLabelValues(outcome).Observe(took.Seconds())
	c.items.Observe(float64(lineItems))
}

// CatalogMetrics counts catalog listing calls.
type CatalogMetrics struct {
	requests *prometheus.CounterVec
	products prometheus.Gauge
}

// NewCatalogMetrics registers the catalog metrics on the provided registerer.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indstore",
		Name:      "catalog_requests_total",
		Help:      "Catalog listing requests by outcome.",
	}, []string{"outcome"})
	products := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "indstore",
		Name:      "catalog_products",
		Help:      "Number of products returned by the last successful listing.",
	})
	reg.MustRegister(requests, products)
	return &CatalogMetrics{requests: requests, products: products}
}

// Observe records a listing call and, on success, the number of products served.
func (c *CatalogMetrics) Observe(outcome string, count int) {
	if c == nil || c.requests == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	c.requests.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		c.products.Set(float64(count))
	}
}

// Handler exposes the gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
