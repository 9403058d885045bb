package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)
	m.Observe(OutcomeSuccess, 2, 250*time.Millisecond)
	m.Observe(OutcomeProvider, 1, 100*time.Millisecond)
	m.Observe("", 1, time.Millisecond)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "indstore_checkout_sessions_total", "outcome", OutcomeSuccess)
	require.NoError(t, err)
	assert.Equal(t, float64(1), got)

	got, err = fetchCounterValue(mfs, "indstore_checkout_sessions_total", "outcome", "unknown")
	require.NoError(t, err)
	assert.Equal(t, float64(1), got)

	sum, err := fetchHistogramSum(mfs, "indstore_checkout_session_duration_seconds", "outcome", OutcomeProvider)
	require.NoError(t, err)
	assert.Greater(t, sum, float64(0))
}

func TestCatalogMetricsTracksProductGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCatalogMetrics(reg)
	m.Observe(OutcomeSuccess, 3)
	m.Observe(OutcomeFailure, 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	gauge := findMetricFamily(mfs, "indstore_catalog_products")
	require.NotNil(t, gauge)
	assert.Equal(t, float64(3), gauge.GetMetric()[0].GetGauge().GetValue())

	got, err := fetchCounterValue(mfs, "indstore_catalog_requests_total", "outcome", OutcomeFailure)
	require.NoError(t, err)
	assert.Equal(t, float64(1), got)
}

func TestNilRegistererIsSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCheckoutMetrics(nil).Observe(OutcomeSuccess, 1, time.Second)
		NewCatalogMetrics(nil).Observe(OutcomeSuccess, 1)
		var m *CheckoutMetrics
		m.Observe(OutcomeSuccess, 1, time.Second)
	})
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCatalogMetrics(reg).Observe(OutcomeSuccess, 5)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "indstore_catalog_products 5")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
