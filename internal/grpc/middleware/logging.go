package middleware

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/vyrodovalexey/recommendations/internal/observability"
)

// LoggingConfig holds configuration for the logging interceptor.
type LoggingConfig struct {
	Logger          observability.Logger
	SkipMethods     []string
	SkipHealthCheck bool
}

// UnaryLoggingInterceptor returns a unary interceptor that logs gRPC requests.
func UnaryLoggingInterceptor(logger observability.Logger) grpc.UnaryServerInterceptor {
	return UnaryLoggingInterceptorWithConfig(LoggingConfig{Logger: logger, SkipHealthCheck: true})
}

// UnaryLoggingInterceptorWithConfig returns a unary logging interceptor with custom configuration.
func UnaryLoggingInterceptorWithConfig(config LoggingConfig) grpc.UnaryServerInterceptor {
	if config.Logger == nil {
		config.Logger = observability.NopLogger()
	}

	skipMethods := make(map[string]bool, len(config.SkipMethods))
	for _, method := range config.SkipMethods {
		skipMethods[method] = true
	}

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if skipMethods[info.FullMethod] || (config.SkipHealthCheck && isHealthCheckMethod(info.FullMethod)) {
			return handler(ctx, req)
		}

		start := time.Now()
		resp, err := handler(ctx, req)

		fields := buildUnaryLogFields(ctx, info.FullMethod, time.Since(start), err)
		logUnaryResult(config.Logger.WithContext(ctx), err, fields)

		return resp, err
	}
}

// buildUnaryLogFields constructs log fields for unary request logging.
func buildUnaryLogFields(ctx context.Context, method string, latency time.Duration, err error) []observability.Field {
	fields := []observability.Field{
		observability.String("method", method),
		observability.Duration("latency", latency),
		observability.String("grpcCode", status.Code(err).String()),
	}

	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		fields = append(fields, observability.String("peer", p.Addr.String()))
	}

	return fields
}

// logUnaryResult logs at error level only for server-side failures. Client
// errors such as NotFound are expected outcomes and log at info.
func logUnaryResult(logger observability.Logger, err error, fields []observability.Field) {
	if err == nil {
		logger.Info("gRPC request completed", fields...)
		return
	}

	fields = append(fields, observability.Error(err))
	switch status.Code(err) {
	case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unimplemented:
		logger.Error("gRPC request failed", fields...)
	default:
		logger.Info("gRPC request completed with error", fields...)
	}
}

func isHealthCheckMethod(method string) bool {
	return method == "/grpc.health.v1.Health/Check" || method == "/grpc.health.v1.Health/Watch"
}
