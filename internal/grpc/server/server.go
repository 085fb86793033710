package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"github.com/vyrodovalexey/recommendations/internal/config"
	"github.com/vyrodovalexey/recommendations/internal/observability"
)

// State represents the server lifecycle state.
type State int32

const (
	// StateUnstarted indicates Start has not been called.
	StateUnstarted State = iota
	// StateServing indicates the server is accepting calls.
	StateServing
	// StateDraining indicates shutdown began and in-flight calls are finishing.
	StateDraining
	// StateStopped indicates the server has stopped.
	StateStopped
)

// Default server configuration constants.
const (
	// DefaultWorkers is the default number of concurrent call workers.
	DefaultWorkers = 10

	// DefaultMaxMsgSize is the default maximum message size in bytes (4MB).
	DefaultMaxMsgSize = 4 * 1024 * 1024

	// DefaultGracefulStopTimeout is the default time allowed for in-flight calls to drain.
	DefaultGracefulStopTimeout = 30 * time.Second
)

// ErrNoCredentials is returned by Start when neither credential material nor
// insecure mode is configured.
var ErrNoCredentials = errors.New("no TLS credentials configured and insecure mode not enabled")

// ErrStoppedDuringStart is returned by Start when Shutdown ran before the
// server began serving.
var ErrStoppedDuringStart = errors.New("server was shut down before it started serving")

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateServing:
		return "serving"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

type serviceRegistration struct {
	desc *grpc.ServiceDesc
	impl interface{}
}

// Server is a gRPC server with a bounded graceful shutdown.
type Server struct {
	// Configuration
	address              string
	workers              int
	maxRecvMsgSize       int
	maxSendMsgSize       int
	keepaliveParams      *keepalive.ServerParameters
	keepaliveEnforcement *keepalive.EnforcementPolicy
	gracefulStopTimeout  time.Duration

	// TLS
	certPEM    []byte
	keyPEM     []byte
	certFile   string
	keyFile    string
	minVersion uint16
	insecure   bool

	// Interceptors
	unaryInterceptors []grpc.UnaryServerInterceptor

	// Services
	services             []serviceRegistration
	reflectionEnabled    bool
	healthServiceEnabled bool
	healthServer         *health.Server

	// Runtime
	mu         sync.Mutex
	grpcServer *grpc.Server
	listener   net.Listener
	logger     observability.Logger
	state      atomic.Int32
	startTime  time.Time
	done       chan struct{}
	doneOnce   sync.Once
}

// New creates a new gRPC server from cfg. A nil cfg uses the defaults.
// Options are applied after cfg and override it.
func New(cfg *config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		address:              config.DefaultAddress,
		workers:              DefaultWorkers,
		maxRecvMsgSize:       DefaultMaxMsgSize,
		maxSendMsgSize:       DefaultMaxMsgSize,
		gracefulStopTimeout:  DefaultGracefulStopTimeout,
		minVersion:           tls.VersionTLS12,
		healthServiceEnabled: true,
		logger:               observability.NopLogger(),
		done:                 make(chan struct{}),
	}

	if cfg != nil {
		s.applyConfig(cfg)
	}

	for _, opt := range opts {
		opt(s)
	}

	s.state.Store(int32(StateUnstarted))

	return s
}

func (s *Server) applyConfig(cfg *config.ServerConfig) {
	if cfg.Address != "" {
		s.address = cfg.Address
	}
	if cfg.Workers > 0 {
		s.workers = cfg.Workers
	}
	if cfg.MaxRecvMsgSize > 0 {
		s.maxRecvMsgSize = cfg.MaxRecvMsgSize
	}
	if cfg.MaxSendMsgSize > 0 {
		s.maxSendMsgSize = cfg.MaxSendMsgSize
	}
	if cfg.GracefulStopTimeout > 0 {
		s.gracefulStopTimeout = cfg.GracefulStopTimeout.Duration()
	}
	s.reflectionEnabled = cfg.Reflection
	s.healthServiceEnabled = cfg.HealthCheck
	s.insecure = cfg.Insecure

	if cfg.Keepalive != nil {
		s.keepaliveParams = &keepalive.ServerParameters{
			Time:                  cfg.Keepalive.Time.Duration(),
			Timeout:               cfg.Keepalive.Timeout.Duration(),
			MaxConnectionIdle:     cfg.Keepalive.MaxConnectionIdle.Duration(),
			MaxConnectionAge:      cfg.Keepalive.MaxConnectionAge.Duration(),
			MaxConnectionAgeGrace: cfg.Keepalive.MaxConnectionAgeGrace.Duration(),
		}
		s.keepaliveEnforcement = &keepalive.EnforcementPolicy{
			PermitWithoutStream: cfg.Keepalive.PermitWithoutStream,
		}
	}

	if cfg.TLSEnabled() {
		s.certFile = cfg.TLS.CertFile
		s.keyFile = cfg.TLS.KeyFile
		s.minVersion = parseTLSVersion(cfg.TLS.GetEffectiveMinVersion())
	}
}

// RegisterService records a service to be registered when the server starts.
// Registrations after Start are ignored.
func (s *Server) RegisterService(desc *grpc.ServiceDesc, impl interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != StateUnstarted {
		s.logger.Warn("ignoring service registration after start",
			observability.String("service", desc.ServiceName),
		)
		return
	}
	s.services = append(s.services, serviceRegistration{desc: desc, impl: impl})
}

// Start loads credentials, binds the listener, and begins serving in the
// background. Any failure leaves the server unstarted.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state := s.State(); state != StateUnstarted {
		return fmt.Errorf("server cannot start from state %s", state)
	}

	s.logger.Info("starting gRPC server",
		observability.String("address", s.address),
		observability.Int("workers", s.workers),
	)

	serverOpts, err := s.buildServerOptions()
	if err != nil {
		return fmt.Errorf("failed to build server options: %w", err)
	}

	if s.listener == nil {
		var lc net.ListenConfig
		ln, err := lc.Listen(ctx, "tcp", s.address)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", s.address, err)
		}
		s.listener = ln
	}

	s.grpcServer = grpc.NewServer(serverOpts...)
	for _, svc := range s.services {
		s.grpcServer.RegisterService(svc.desc, svc.impl)
	}

	if s.healthServiceEnabled {
		s.healthServer = health.NewServer()
		healthpb.RegisterHealthServer(s.grpcServer, s.healthServer)
		s.healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		for _, svc := range s.services {
			s.healthServer.SetServingStatus(svc.desc.ServiceName, healthpb.HealthCheckResponse_SERVING)
		}
	}

	if s.reflectionEnabled {
		reflection.Register(s.grpcServer)
	}

	s.startTime = time.Now()

	// Shutdown does not take s.mu; it may have stopped the server while
	// credentials were read or the listener was bound.
	if !s.state.CompareAndSwap(int32(StateUnstarted), int32(StateServing)) {
		s.grpcServer.Stop()
		_ = s.listener.Close()
		s.grpcServer, s.listener = nil, nil
		return ErrStoppedDuringStart
	}

	s.logger.Info("gRPC server started",
		observability.String("address", s.listener.Addr().String()),
		observability.Bool("tls", !s.plaintext()),
		observability.Bool("reflection", s.reflectionEnabled),
		observability.Bool("health", s.healthServiceEnabled),
	)

	go s.serve(s.grpcServer, s.listener)

	return nil
}

// serve blocks in grpc.Server.Serve. Serve returns as soon as a stop begins,
// so only an unexpected return moves the server to stopped here.
func (s *Server) serve(srv *grpc.Server, ln net.Listener) {
	err := srv.Serve(ln)
	if s.state.CompareAndSwap(int32(StateServing), int32(StateStopped)) {
		if err != nil {
			s.logger.Error("gRPC server error",
				observability.String("address", s.address),
				observability.Error(err),
			)
		}
		srv.Stop()
		s.markDone()
	}
}

// Shutdown drains the server. New calls are refused, in-flight calls are
// given up to the graceful stop timeout (or until ctx ends) to finish, and
// whatever remains is cancelled. A forced stop is logged, not returned as an
// error. Calling Shutdown more than once is safe.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.state.CompareAndSwap(int32(StateUnstarted), int32(StateStopped)) {
		s.markDone()
		return nil
	}

	if !s.state.CompareAndSwap(int32(StateServing), int32(StateDraining)) {
		// Another caller is draining or the server already stopped.
		select {
		case <-s.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	started := time.Now()
	s.logger.Info("shutdown started",
		observability.String("address", s.address),
		observability.Duration("timeout", s.gracefulStopTimeout),
	)

	if s.healthServer != nil {
		s.healthServer.Shutdown()
	}

	ctx, cancel := context.WithTimeout(ctx, s.gracefulStopTimeout)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	forced := false
	select {
	case <-stopped:
	case <-ctx.Done():
		forced = true
		s.logger.Warn("graceful stop timeout, forcing stop",
			observability.String("address", s.address),
			observability.Duration("elapsed", time.Since(started)),
		)
		s.grpcServer.Stop()
		<-stopped
	}

	s.state.Store(int32(StateStopped))
	s.markDone()

	s.logger.Info("shutdown complete",
		observability.String("address", s.address),
		observability.Bool("forced", forced),
		observability.Duration("duration", time.Since(started)),
	)

	return nil
}

// Wait blocks until the server has stopped.
func (s *Server) Wait() {
	<-s.done
}

// Done returns a channel closed when the server has stopped.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

func (s *Server) markDone() {
	s.doneOnce.Do(func() { close(s.done) })
}

// State returns the current server state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// IsServing returns true if the server accepts new calls.
func (s *Server) IsServing() bool {
	return s.State() == StateServing
}

// Uptime returns the time since the server started serving.
func (s *Server) Uptime() time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil || s.grpcServer == nil {
		return nil
	}
	return s.listener.Addr()
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.address
}

// Workers returns the configured worker count.
func (s *Server) Workers() int {
	return s.workers
}

// GetServiceInfo returns information about registered services.
func (s *Server) GetServiceInfo() map[string]grpc.ServiceInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grpcServer != nil {
		return s.grpcServer.GetServiceInfo()
	}
	return nil
}

// buildServerOptions builds gRPC server options.
func (s *Server) buildServerOptions() ([]grpc.ServerOption, error) {
	opts := make([]grpc.ServerOption, 0, 8)

	opts = append(opts,
		grpc.MaxRecvMsgSize(s.maxRecvMsgSize),
		grpc.MaxSendMsgSize(s.maxSendMsgSize),
		grpc.NumStreamWorkers(uint32(s.workers)), //nolint:gosec // workers validated positive
	)

	if s.keepaliveParams != nil {
		opts = append(opts, grpc.KeepaliveParams(*s.keepaliveParams))
	}
	if s.keepaliveEnforcement != nil {
		opts = append(opts, grpc.KeepaliveEnforcementPolicy(*s.keepaliveEnforcement))
	}

	tlsOpts, err := s.buildTLSOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, tlsOpts...)

	if len(s.unaryInterceptors) > 0 {
		opts = append(opts, grpc.ChainUnaryInterceptor(s.unaryInterceptors...))
	}

	return opts, nil
}

// plaintext reports whether the server will run without TLS.
func (s *Server) plaintext() bool {
	return len(s.certPEM) == 0 && s.certFile == "" && s.insecure
}

// buildTLSOptions builds TLS-related server options. Credential material
// takes precedence over insecure mode; plaintext requires insecure mode.
func (s *Server) buildTLSOptions() ([]grpc.ServerOption, error) {
	certPEM, keyPEM := s.certPEM, s.keyPEM

	if len(certPEM) == 0 && s.certFile != "" {
		var err error
		if certPEM, keyPEM, err = readCredentialFiles(s.certFile, s.keyFile); err != nil {
			return nil, err
		}
	}

	if len(certPEM) == 0 {
		if !s.insecure {
			return nil, ErrNoCredentials
		}
		s.logger.Warn("gRPC server running in INSECURE mode (no TLS)",
			observability.String("address", s.address),
		)
		return nil, nil
	}

	tlsConfig, err := newTLSConfig(certPEM, keyPEM, s.minVersion)
	if err != nil {
		return nil, err
	}

	s.logger.Info("gRPC server TLS configured",
		observability.String("address", s.address),
		observability.String("certFile", s.certFile),
	)

	return []grpc.ServerOption{grpc.Creds(credentials.NewTLS(tlsConfig))}, nil
}

// newTLSConfig builds a server TLS config from PEM encoded key material.
func newTLSConfig(certPEM, keyPEM []byte, minVersion uint16) (*tls.Config, error) {
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS credentials: %w", err)
	}

	if minVersion < tls.VersionTLS12 {
		minVersion = tls.VersionTLS12
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   minVersion,
		NextProtos:   []string{"h2"},
	}, nil
}

// readCredentialFiles reads the certificate chain and private key as raw bytes.
// #nosec G304 -- paths come from operator configuration
func readCredentialFiles(certFile, keyFile string) (certPEM, keyPEM []byte, err error) {
	certPEM, err = os.ReadFile(certFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read certificate file: %w", err)
	}
	keyPEM, err = os.ReadFile(keyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return certPEM, keyPEM, nil
}

// parseTLSVersion parses a TLS version string to uint16.
func parseTLSVersion(version string) uint16 {
	switch version {
	case "TLS13":
		return tls.VersionTLS13
	default:
		return tls.VersionTLS12
	}
}
