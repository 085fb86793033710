// Package middleware provides gRPC unary interceptors for the
// recommendations service.
//
// The middleware package implements interceptors for:
//   - Recovery (panic recovery)
//   - Request ID (request correlation)
//   - Tracing (OpenTelemetry distributed tracing)
//   - Metrics (Prometheus metrics for gRPC requests)
//   - Logging (structured logging with gRPC status codes)
//   - Status mapping (domain errors to gRPC status codes)
//   - Rate limiting (global token bucket)
//   - Concurrency limiting (bounded worker pool)
//
// Interceptors run in the order they are passed to grpc.ChainUnaryInterceptor.
// Status mapping must run inside logging and metrics so both observe the
// final code:
//
//	srv := grpc.NewServer(
//	    grpc.ChainUnaryInterceptor(
//	        middleware.UnaryRequestIDInterceptor(),
//	        middleware.UnaryTracingInterceptor(tracingCfg),
//	        middleware.UnaryMetricsInterceptor(metrics),
//	        middleware.UnaryLoggingInterceptor(logger),
//	        middleware.UnaryStatusInterceptor(logger, mappings...),
//	        middleware.UnaryRecoveryInterceptor(logger),
//	        middleware.UnaryConcurrencyLimitInterceptor(limiter),
//	    ),
//	)
package middleware
