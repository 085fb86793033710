// Package observability provides logging, metrics, and tracing
// functionality for the recommendations service.
//
// # Logging
//
// The Logger interface wraps zap:
//
//	logger, err := observability.NewLogger(observability.DefaultLogConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("server started", observability.String("address", addr))
//
// # Metrics
//
// Metrics owns a dedicated Prometheus registry; gRPC interceptors register
// their collectors on it and Handler serves it.
//
// # Tracing
//
// NewTracer installs an OpenTelemetry tracer provider with optional OTLP
// gRPC export and W3C trace-context propagation.
package observability
