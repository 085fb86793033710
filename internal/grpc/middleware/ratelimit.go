package middleware

import (
	"context"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/vyrodovalexey/recommendations/internal/observability"
)

// GRPCRateLimiter applies a global token bucket to gRPC requests.
type GRPCRateLimiter struct {
	limiter *rate.Limiter
	logger  observability.Logger
}

// RateLimiterOption is a functional option for configuring the rate limiter.
type RateLimiterOption func(*GRPCRateLimiter)

// WithRateLimiterLogger sets the logger for the rate limiter.
func WithRateLimiterLogger(logger observability.Logger) RateLimiterOption {
	return func(rl *GRPCRateLimiter) {
		rl.logger = logger
	}
}

// NewGRPCRateLimiter creates a new gRPC rate limiter.
func NewGRPCRateLimiter(rps float64, burst int, opts ...RateLimiterOption) *GRPCRateLimiter {
	rl := &GRPCRateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(rl)
	}

	return rl
}

// Allow checks if a request is allowed.
func (rl *GRPCRateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

// UnaryRateLimitInterceptor returns a unary server interceptor that applies
// rate limiting. Rejected calls fail with ResourceExhausted.
func UnaryRateLimitInterceptor(limiter *GRPCRateLimiter) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if !limiter.Allow() {
			limiter.logger.Warn("rate limit exceeded",
				observability.String("client_addr", getClientAddrFromContext(ctx)),
				observability.String("method", info.FullMethod),
			)
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}

		return handler(ctx, req)
	}
}

// getClientAddrFromContext extracts the client address from context.
func getClientAddrFromContext(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return "unknown"
}
