package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// GRPCMetrics holds Prometheus metrics for gRPC.
type GRPCMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	waiting         prometheus.Gauge
}

// NewGRPCMetrics creates a new GRPCMetrics instance registered on registry.
func NewGRPCMetrics(namespace string, registry prometheus.Registerer) *GRPCMetrics {
	if namespace == "" {
		namespace = "grpc"
	}

	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	m := &GRPCMetrics{}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Total number of gRPC requests",
		},
		[]string{"service", "method", "code"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "request_duration_seconds",
			Help:      "gRPC request duration in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"service", "method", "code"},
	)

	m.inFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "calls_in_flight",
			Help:      "Number of gRPC calls holding a worker slot",
		},
	)

	m.waiting = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "calls_waiting",
			Help:      "Number of gRPC calls waiting for a worker slot",
		},
	)

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.inFlight,
		m.waiting,
	)

	return m
}

// RecordRequest records a completed gRPC request.
func (m *GRPCMetrics) RecordRequest(service, method, code string, duration time.Duration) {
	m.requestsTotal.WithLabelValues(service, method, code).Inc()
	m.requestDuration.WithLabelValues(service, method, code).Observe(duration.Seconds())
}

// ObserveConcurrency records worker pool occupancy. It matches the
// signature expected by WithConcurrencyObserver.
func (m *GRPCMetrics) ObserveConcurrency(active, waiting int64) {
	m.inFlight.Set(float64(active))
	m.waiting.Set(float64(waiting))
}

// UnaryMetricsInterceptor returns a unary server interceptor that records metrics.
func UnaryMetricsInterceptor(metrics *GRPCMetrics) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		service, method := ParseFullMethod(info.FullMethod)

		resp, err := handler(ctx, req)

		metrics.RecordRequest(service, method, status.Code(err).String(), time.Since(start))

		return resp, err
	}
}

// ParseFullMethod splits "/package.Service/Method" into service and method.
func ParseFullMethod(fullMethod string) (service, method string) {
	fullMethod = strings.TrimPrefix(fullMethod, "/")

	idx := strings.LastIndex(fullMethod, "/")
	if idx < 0 {
		return fullMethod, ""
	}

	return fullMethod[:idx], fullMethod[idx+1:]
}
