// Package health provides health, readiness and liveness probe endpoints
// for the recommendations service.
//
// Readiness aggregates registered checks and reports unhealthy while the
// service drains, so load balancers stop routing new calls before the
// gRPC server finishes in-flight work.
//
//	checker := health.NewChecker(version, logger)
//	checker.RegisterCheck("grpc", func() health.Check { ... })
//
//	mux := http.NewServeMux()
//	mux.Handle("/health", checker.HealthHandler())
//	mux.Handle("/ready", checker.ReadinessHandler())
//	mux.Handle("/live", checker.LivenessHandler())
package health
