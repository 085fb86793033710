package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/vyrodovalexey/recommendations/internal/observability"
)

// TracingConfig contains tracing configuration.
type TracingConfig struct {
	Tracer      trace.Tracer
	Propagator  propagation.TextMapPropagator
	ServiceName string
}

// DefaultTracingConfig returns tracing configuration backed by the global provider.
func DefaultTracingConfig(serviceName string) *TracingConfig {
	return &TracingConfig{
		Tracer:      otel.Tracer(serviceName),
		Propagator:  otel.GetTextMapPropagator(),
		ServiceName: serviceName,
	}
}

// UnaryTracingInterceptor returns a unary server interceptor that adds tracing.
func UnaryTracingInterceptor(cfg *TracingConfig) grpc.UnaryServerInterceptor {
	if cfg == nil {
		cfg = DefaultTracingConfig("grpc-server")
	}

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		ctx = extractTraceContext(ctx, cfg.Propagator)

		service, method := ParseFullMethod(info.FullMethod)

		ctx, span := cfg.Tracer.Start(ctx, info.FullMethod,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("rpc.system", "grpc"),
				attribute.String("rpc.service", service),
				attribute.String("rpc.method", method),
			),
		)
		defer span.End()

		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			span.SetAttributes(attribute.String("net.peer.name", p.Addr.String()))
		}

		ctx = addTraceToContext(ctx, span)

		resp, err := handler(ctx, req)

		code := status.Code(err)
		span.SetAttributes(attribute.Int("rpc.grpc.status_code", int(code)))
		switch {
		case err == nil:
			span.SetStatus(codes.Ok, "")
		case isServerFault(code):
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		default:
			// Caller errors leave the span status unset.
			span.AddEvent("rpc error", trace.WithAttributes(attribute.String("rpc.grpc.status", code.String())))
		}

		return resp, err
	}
}

func isServerFault(code grpccodes.Code) bool {
	switch code {
	case grpccodes.Unknown, grpccodes.DeadlineExceeded, grpccodes.Unimplemented,
		grpccodes.Internal, grpccodes.Unavailable, grpccodes.DataLoss:
		return true
	default:
		return false
	}
}

// extractTraceContext extracts trace context from incoming metadata.
func extractTraceContext(ctx context.Context, propagator propagation.TextMapPropagator) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}

	return propagator.Extract(ctx, metadataCarrier(md))
}

// addTraceToContext adds trace and span IDs to context for logging.
func addTraceToContext(ctx context.Context, span trace.Span) context.Context {
	if span.SpanContext().HasTraceID() {
		ctx = observability.ContextWithTraceID(ctx, span.SpanContext().TraceID().String())
	}
	if span.SpanContext().HasSpanID() {
		ctx = observability.ContextWithSpanID(ctx, span.SpanContext().SpanID().String())
	}
	return ctx
}

// metadataCarrier adapts metadata.MD to propagation.TextMapCarrier.
type metadataCarrier metadata.MD

// Get returns the value for a key.
func (m metadataCarrier) Get(key string) string {
	values := metadata.MD(m).Get(key)
	if len(values) > 0 {
		return values[0]
	}
	return ""
}

// Set sets a key-value pair.
func (m metadataCarrier) Set(key, value string) {
	metadata.MD(m).Set(key, value)
}

// Keys returns all keys.
func (m metadataCarrier) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// InjectTraceContext injects the trace context of ctx into outgoing metadata.
func InjectTraceContext(ctx context.Context, md metadata.MD) {
	otel.GetTextMapPropagator().Inject(ctx, metadataCarrier(md))
}
