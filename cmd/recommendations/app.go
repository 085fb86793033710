package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"

	v1 "github.com/vyrodovalexey/recommendations/api/recommendations/v1"
	"github.com/vyrodovalexey/recommendations/internal/catalog"
	"github.com/vyrodovalexey/recommendations/internal/config"
	"github.com/vyrodovalexey/recommendations/internal/grpc/middleware"
	"github.com/vyrodovalexey/recommendations/internal/grpc/server"
	"github.com/vyrodovalexey/recommendations/internal/health"
	"github.com/vyrodovalexey/recommendations/internal/observability"
	"github.com/vyrodovalexey/recommendations/internal/recommend"
)

const metricsNamespace = "recommendations"

// application holds all application components.
type application struct {
	config        *config.Config
	logger        observability.Logger
	catalog       *catalog.Catalog
	server        *server.Server
	healthChecker *health.Checker
	metrics       *observability.Metrics
	grpcMetrics   *middleware.GRPCMetrics
	tracer        *observability.Tracer
	limiter       *middleware.ConcurrencyLimiter

	metricsServer   *http.Server
	metricsListener net.Listener

	// ready is closed once run has started every listener.
	ready chan struct{}
}

// newApplication wires all components from cfg. Extra server options are
// applied after the configuration-derived ones.
func newApplication(cfg *config.Config, logger observability.Logger, opts ...server.Option) (*application, error) {
	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	tracer, err := initTracer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	metrics := observability.NewMetrics(metricsNamespace)
	metrics.SetBuildInfo(version, gitCommit, buildTime)
	for _, category := range cat.Categories() {
		items, _ := cat.Lookup(category)
		metrics.SetCatalogSize(category.String(), len(items))
	}

	grpcMetrics := middleware.NewGRPCMetrics(metricsNamespace, metrics.Registry())

	app := &application{
		ready:         make(chan struct{}),
		config:        cfg,
		logger:        logger,
		catalog:       cat,
		metrics:       metrics,
		grpcMetrics:   grpcMetrics,
		tracer:        tracer,
		healthChecker: health.NewChecker(version, logger, health.WithMetrics(health.NewMetrics(metricsNamespace, metrics.Registry()))),
		limiter: middleware.NewConcurrencyLimiter(cfg.Server.Workers,
			middleware.WithConcurrencyLogger(logger),
			middleware.WithConcurrencyObserver(grpcMetrics.ObserveConcurrency),
		),
	}

	serverOpts := append([]server.Option{
		server.WithLogger(logger),
		server.WithUnaryInterceptors(app.buildInterceptors()...),
	}, opts...)

	app.server = server.New(&cfg.Server, serverOpts...)

	svc := recommend.NewService(cat, recommend.WithLogger(logger))
	v1.RegisterRecommendationsServer(app.server, recommend.NewGRPCService(svc))

	app.healthChecker.RegisterCheck("grpc", app.grpcCheck)

	return app, nil
}

// loadCatalog returns the configured catalog, or the built-in one.
func loadCatalog(cfg config.CatalogConfig) (*catalog.Catalog, error) {
	if cfg.File == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return cat, nil
}

// initTracer initializes the tracer.
func initTracer(cfg *config.Config) (*observability.Tracer, error) {
	serviceName := cfg.Tracing.ServiceName
	if serviceName == "" {
		serviceName = config.DefaultServiceName
	}

	return observability.NewTracer(context.Background(), observability.TracerConfig{
		ServiceName:    serviceName,
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
		Enabled:        cfg.Tracing.Enabled,
	})
}

// buildInterceptors builds the unary interceptor chain, outermost first.
// The status interceptor sits inside logging and metrics so both observe the
// final gRPC code.
func (a *application) buildInterceptors() []grpc.UnaryServerInterceptor {
	interceptors := []grpc.UnaryServerInterceptor{
		middleware.UnaryRequestIDInterceptor(),
	}

	if a.tracer.Enabled() {
		interceptors = append(interceptors, middleware.UnaryTracingInterceptor(&middleware.TracingConfig{
			Tracer:      a.tracer.Tracer(),
			Propagator:  otel.GetTextMapPropagator(),
			ServiceName: a.config.Tracing.ServiceName,
		}))
	}

	interceptors = append(interceptors,
		middleware.UnaryMetricsInterceptor(a.grpcMetrics),
		middleware.UnaryLoggingInterceptor(a.logger),
		middleware.UnaryStatusInterceptor(a.logger, middleware.ErrorMapping{
			Target: recommend.ErrCategoryNotFound,
			Code:   codes.NotFound,
		}),
		middleware.UnaryRecoveryInterceptor(a.logger),
	)

	if rl := a.config.Server.RateLimit; rl != nil && rl.Enabled {
		interceptors = append(interceptors, middleware.UnaryRateLimitInterceptor(
			middleware.NewGRPCRateLimiter(rl.RequestsPerSecond, rl.Burst, middleware.WithRateLimiterLogger(a.logger)),
		))
	}

	return append(interceptors, middleware.UnaryConcurrencyLimitInterceptor(a.limiter))
}

// grpcCheck reports readiness of the gRPC listener.
func (a *application) grpcCheck() health.Check {
	state := a.server.State()
	if state != server.StateServing {
		return health.Check{Status: health.StatusUnhealthy, Message: state.String()}
	}
	return health.Check{Status: health.StatusHealthy, Message: state.String()}
}

// startMetricsServer binds the metrics listener and serves metrics and
// probe endpoints in the background.
func (a *application) startMetricsServer() error {
	if !a.config.Metrics.Enabled {
		return nil
	}

	path := a.config.Metrics.Path
	if path == "" {
		path = config.DefaultMetricsPath
	}

	mux := http.NewServeMux()
	mux.Handle(path, a.metrics.Handler())
	a.healthChecker.Register(mux)

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", a.config.Metrics.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.config.Metrics.Address, err)
	}

	a.metricsListener = ln
	a.metricsServer = &http.Server{
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	a.logger.Info("starting metrics server",
		observability.String("address", ln.Addr().String()),
		observability.String("metrics_path", path),
	)

	return nil
}

// metricsAddr returns the bound metrics address, or nil when disabled.
func (a *application) metricsAddr() net.Addr {
	if a.metricsListener == nil {
		return nil
	}
	return a.metricsListener.Addr()
}
