package middleware

import (
	"context"
	"runtime/debug"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vyrodovalexey/recommendations/internal/observability"
)

// UnaryRecoveryInterceptor returns a unary server interceptor that recovers from panics.
func UnaryRecoveryInterceptor(logger observability.Logger) grpc.UnaryServerInterceptor {
	return UnaryRecoveryInterceptorWithHandler(func(ctx context.Context, method string, p interface{}) error {
		logger.WithContext(ctx).Error("panic recovered in gRPC handler",
			observability.String("method", method),
			observability.Any("panic", p),
			observability.String("stack", string(debug.Stack())),
		)
		return status.Error(codes.Internal, InternalErrorMessage)
	})
}

// RecoveryHandlerFunc converts a recovered panic value into the call's error.
type RecoveryHandlerFunc func(ctx context.Context, method string, p interface{}) error

// UnaryRecoveryInterceptorWithHandler returns a unary server interceptor with a custom recovery handler.
func UnaryRecoveryInterceptorWithHandler(handler RecoveryHandlerFunc) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		grpcHandler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				resp = nil
				err = handler(ctx, info.FullMethod, r)
			}
		}()

		return grpcHandler(ctx, req)
	}
}
