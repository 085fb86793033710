package middleware

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vyrodovalexey/recommendations/internal/observability"
)

// InternalErrorMessage is returned to callers for errors without a mapping.
const InternalErrorMessage = "internal server error"

// ErrorMapping maps errors matching Target (via errors.Is) to Code. The error's
// own message is sent to the caller.
type ErrorMapping struct {
	Target error
	Code   codes.Code
}

// ToStatus converts err into a gRPC status error. Errors that already carry a
// status pass through, mapped errors get their code, and anything else
// becomes Internal with a fixed message.
func ToStatus(err error, mappings ...ErrorMapping) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	for _, m := range mappings {
		if errors.Is(err, m.Target) {
			return status.Error(m.Code, err.Error())
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}

	return status.Error(codes.Internal, InternalErrorMessage)
}

// UnaryStatusInterceptor returns a unary server interceptor that converts
// handler errors into gRPC status errors. Unmapped errors are logged with
// their detail, which is not sent to the caller.
func UnaryStatusInterceptor(logger observability.Logger, mappings ...ErrorMapping) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = observability.NopLogger()
	}

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}

		mapped := ToStatus(err, mappings...)
		if status.Code(mapped) == codes.Internal && mapped != err {
			logger.WithContext(ctx).Error("unmapped handler error",
				observability.String("method", info.FullMethod),
				observability.Error(err),
			)
		}
		return nil, mapped
	}
}
