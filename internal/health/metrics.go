package health

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for health probes.
type Metrics struct {
	probesTotal *prometheus.CounterVec
	checkStatus *prometheus.GaugeVec
}

// NewMetrics creates probe metrics registered on registry.
func NewMetrics(namespace string, registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		probesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "health",
				Name:      "probes_total",
				Help:      "Total number of health probes served",
			},
			[]string{"type"},
		),
		checkStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "health",
				Name:      "check_status",
				Help:      "Current health check status (1=healthy, 0=unhealthy)",
			},
			[]string{"check"},
		),
	}

	registry.MustRegister(m.probesTotal, m.checkStatus)

	// Vec types only emit lines after first use.
	for _, probe := range []string{"health", "readiness", "liveness"} {
		m.probesTotal.WithLabelValues(probe)
	}
	m.checkStatus.WithLabelValues("overall")

	return m
}

func (m *Metrics) recordProbe(probe string) {
	if m == nil {
		return
	}
	m.probesTotal.WithLabelValues(probe).Inc()
}

func (m *Metrics) recordCheck(check string, status Status) {
	if m == nil {
		return
	}
	value := 0.0
	if status != StatusUnhealthy {
		value = 1
	}
	m.checkStatus.WithLabelValues(check).Set(value)
}
