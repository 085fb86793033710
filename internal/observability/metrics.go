package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the Prometheus registry backing the /metrics endpoint along
// with process-level gauges.
type Metrics struct {
	registry  *prometheus.Registry
	buildInfo *prometheus.GaugeVec
	startTime prometheus.Gauge
	catalog   *prometheus.GaugeVec
}

// NewMetrics creates a Metrics instance with its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "recommendations"
	}

	m := &Metrics{registry: prometheus.NewRegistry()}

	m.buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version", "commit", "build_time"},
	)

	m.startTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "start_time_seconds",
			Help:      "Process start time in unix seconds",
		},
	)

	m.catalog = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_items",
			Help:      "Number of catalog items per category",
		},
		[]string{"category"},
	)

	m.registry.MustRegister(
		m.buildInfo,
		m.startTime,
		m.catalog,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.startTime.Set(float64(time.Now().Unix()))

	return m
}

// SetBuildInfo sets the build information metric.
func (m *Metrics) SetBuildInfo(version, commit, buildTime string) {
	m.buildInfo.WithLabelValues(version, commit, buildTime).Set(1)
}

// SetCatalogSize records the item count of a category.
func (m *Metrics) SetCatalogSize(category string, n int) {
	m.catalog.WithLabelValues(category).Set(float64(n))
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
