// Package monitoring holds the Prometheus metrics exported by skymock.
package monitoring

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Resolution kinds.
const (
	KindDomain = "domain"
	KindPath   = "path"
)

// Monitor collects catalog and routing metrics.
type Monitor struct {
	// Counter for the number of catalogs built, one per tenant query.
	catalogRequests prometheus.Counter
	// Histogram of how many entries a catalog query produced.
	catalogEntries prometheus.Histogram
	// Counter of handler resolutions by kind and outcome.
	resolutions *prometheus.CounterVec
	// Counter of per-tenant overrides by resulting state.
	overrides *prometheus.CounterVec
	// Gauge of registered plugins by variant.
	plugins *prometheus.GaugeVec
}

// NewMonitor creates the metrics and registers them with reg.
func NewMonitor(reg prometheus.Registerer) *Monitor {
	m := &Monitor{
		catalogRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skymock_catalog_requests_total",
			Help: "Number of service catalogs built for tenants",
		}),
		catalogEntries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skymock_catalog_entries",
			Help:    "Number of entries in a built service catalog",
			Buckets: prometheus.LinearBuckets(0, 2, 10),
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skymock_handler_resolutions_total",
			Help: "Handler resolutions by kind (domain, path) and result (hit, miss)",
		}, []string{"kind", "result"}),
		overrides: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skymock_tenant_overrides_total",
			Help: "Per-tenant endpoint template overrides by resulting state",
		}, []string{"enabled"}),
		plugins: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "skymock_registered_plugins",
			Help: "Registered plugins by variant",
		}, []string{"variant"}),
	}
	reg.MustRegister(m.catalogRequests, m.catalogEntries, m.resolutions, m.overrides, m.plugins)
	return m
}

// ObserveCatalog records one catalog query. Safe on a nil Monitor.
func (m *Monitor) ObserveCatalog(entries int) {
	if m == nil {
		return
	}
	m.catalogRequests.Inc()
	m.catalogEntries.Observe(float64(entries))
}

// ObserveResolution records a handler lookup. Safe on a nil Monitor.
func (m *Monitor) ObserveResolution(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.resolutions.WithLabelValues(kind, result).Inc()
}

// ObserveOverride records a per-tenant override. Safe on a nil Monitor.
func (m *Monitor) ObserveOverride(enabled bool) {
	if m == nil {
		return
	}
	m.overrides.WithLabelValues(strconv.FormatBool(enabled)).Inc()
}

// SetPlugins sets the number of registered plugins of a variant. Safe on a nil Monitor.
func (m *Monitor) SetPlugins(variant string, n int) {
	if m == nil {
		return
	}
	m.plugins.WithLabelValues(variant).Set(float64(n))
}
