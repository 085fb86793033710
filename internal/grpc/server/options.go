package server

import (
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"github.com/vyrodovalexey/recommendations/internal/observability"
)

// Option is a functional option for configuring the gRPC server.
type Option func(*Server)

// WithLogger sets the logger for the server.
func WithLogger(logger observability.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAddress sets the address for the server to listen on.
func WithAddress(addr string) Option {
	return func(s *Server) {
		s.address = addr
	}
}

// WithListener makes the server serve on ln instead of binding its address.
func WithListener(ln net.Listener) Option {
	return func(s *Server) {
		s.listener = ln
	}
}

// WithWorkers sets the number of stream workers.
func WithWorkers(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithMaxRecvMsgSize sets the maximum message size the server can receive.
func WithMaxRecvMsgSize(size int) Option {
	return func(s *Server) {
		s.maxRecvMsgSize = size
	}
}

// WithMaxSendMsgSize sets the maximum message size the server can send.
func WithMaxSendMsgSize(size int) Option {
	return func(s *Server) {
		s.maxSendMsgSize = size
	}
}

// WithKeepaliveParams sets the keepalive parameters for the server.
func WithKeepaliveParams(kp keepalive.ServerParameters) Option {
	return func(s *Server) {
		s.keepaliveParams = &kp
	}
}

// WithKeepaliveEnforcementPolicy sets the keepalive enforcement policy.
func WithKeepaliveEnforcementPolicy(kep keepalive.EnforcementPolicy) Option {
	return func(s *Server) {
		s.keepaliveEnforcement = &kep
	}
}

// WithUnaryInterceptors adds unary interceptors to the server, outermost first.
func WithUnaryInterceptors(interceptors ...grpc.UnaryServerInterceptor) Option {
	return func(s *Server) {
		s.unaryInterceptors = append(s.unaryInterceptors, interceptors...)
	}
}

// WithCredentials sets PEM encoded TLS credential material.
func WithCredentials(certPEM, keyPEM []byte) Option {
	return func(s *Server) {
		s.certPEM = certPEM
		s.keyPEM = keyPEM
	}
}

// WithCredentialFiles sets the paths of PEM encoded TLS credential material.
// The files are read when the server starts.
func WithCredentialFiles(certFile, keyFile string) Option {
	return func(s *Server) {
		s.certFile = certFile
		s.keyFile = keyFile
	}
}

// WithTLSMinVersion sets the minimum TLS version ("TLS12" or "TLS13").
func WithTLSMinVersion(version string) Option {
	return func(s *Server) {
		s.minVersion = parseTLSVersion(version)
	}
}

// WithInsecure allows the server to run without TLS when no credentials are set.
func WithInsecure(enabled bool) Option {
	return func(s *Server) {
		s.insecure = enabled
	}
}

// WithReflection enables gRPC reflection service.
func WithReflection(enabled bool) Option {
	return func(s *Server) {
		s.reflectionEnabled = enabled
	}
}

// WithHealthService enables gRPC health service.
func WithHealthService(enabled bool) Option {
	return func(s *Server) {
		s.healthServiceEnabled = enabled
	}
}

// WithGracefulStopTimeout sets the graceful stop timeout.
func WithGracefulStopTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.gracefulStopTimeout = timeout
	}
}
