package middleware

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/vyrodovalexey/recommendations/internal/observability"
)

const (
	// RequestIDHeader is the metadata key for request ID.
	RequestIDHeader = "x-request-id"
)

// UnaryRequestIDInterceptor returns a unary server interceptor that attaches a
// request ID to the context and echoes it in the response header.
func UnaryRequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		_ *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		ctx = ensureRequestID(ctx)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, GetRequestID(ctx)))
		return handler(ctx, req)
	}
}

// ensureRequestID ensures a request ID exists in the context.
func ensureRequestID(ctx context.Context) context.Context {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(RequestIDHeader); len(values) > 0 && values[0] != "" {
			return observability.ContextWithRequestID(ctx, values[0])
		}
	}

	requestID := uuid.New().String()
	ctx = observability.ContextWithRequestID(ctx, requestID)

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		md = metadata.MD{}
	}
	md = md.Copy()
	md.Set(RequestIDHeader, requestID)

	return metadata.NewIncomingContext(ctx, md)
}

// GetRequestID extracts the request ID from context.
func GetRequestID(ctx context.Context) string {
	if requestID := observability.RequestIDFromContext(ctx); requestID != "" {
		return requestID
	}

	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(RequestIDHeader); len(values) > 0 {
			return values[0]
		}
	}

	return ""
}

// SetRequestIDInOutgoingContext sets the request ID in outgoing metadata.
func SetRequestIDInOutgoingContext(ctx context.Context, requestID string) context.Context {
	md, ok := metadata.FromOutgoingContext(ctx)
	if !ok {
		md = metadata.MD{}
	}
	md = md.Copy()
	md.Set(RequestIDHeader, requestID)
	return metadata.NewOutgoingContext(ctx, md)
}
