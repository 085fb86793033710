package middleware

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/vyrodovalexey/recommendations/internal/observability"
)

// DefaultMaxConcurrentCalls is the default number of calls handled at once.
const DefaultMaxConcurrentCalls = 10

// ConcurrencyLimiter bounds the number of calls executing at once. Calls over
// the limit wait for a free slot until their context ends.
type ConcurrencyLimiter struct {
	sem      *semaphore.Weighted
	limit    int64
	active   atomic.Int64
	waiting  atomic.Int64
	logger   observability.Logger
	observer func(active, waiting int64)
}

// ConcurrencyLimiterOption is a functional option for configuring the limiter.
type ConcurrencyLimiterOption func(*ConcurrencyLimiter)

// WithConcurrencyLogger sets the logger for the limiter.
func WithConcurrencyLogger(logger observability.Logger) ConcurrencyLimiterOption {
	return func(l *ConcurrencyLimiter) {
		l.logger = logger
	}
}

// WithConcurrencyObserver registers a callback invoked whenever the number of
// active or waiting calls changes.
func WithConcurrencyObserver(fn func(active, waiting int64)) ConcurrencyLimiterOption {
	return func(l *ConcurrencyLimiter) {
		l.observer = fn
	}
}

// NewConcurrencyLimiter creates a limiter admitting at most limit calls.
// A non-positive limit uses DefaultMaxConcurrentCalls.
func NewConcurrencyLimiter(limit int, opts ...ConcurrencyLimiterOption) *ConcurrencyLimiter {
	if limit <= 0 {
		limit = DefaultMaxConcurrentCalls
	}

	l := &ConcurrencyLimiter{
		sem:    semaphore.NewWeighted(int64(limit)),
		limit:  int64(limit),
		logger: observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Limit returns the maximum number of concurrent calls.
func (l *ConcurrencyLimiter) Limit() int {
	return int(l.limit)
}

// Active returns the number of calls currently holding a slot.
func (l *ConcurrencyLimiter) Active() int64 {
	return l.active.Load()
}

// Waiting returns the number of calls queued for a slot.
func (l *ConcurrencyLimiter) Waiting() int64 {
	return l.waiting.Load()
}

// Acquire blocks until a slot is free or ctx ends. The returned release func
// must be called exactly once.
func (l *ConcurrencyLimiter) Acquire(ctx context.Context) (release func(), err error) {
	l.waiting.Add(1)
	l.notify()

	err = l.sem.Acquire(ctx, 1)
	l.waiting.Add(-1)
	if err != nil {
		l.notify()
		return nil, err
	}

	l.active.Add(1)
	l.notify()

	return func() {
		l.active.Add(-1)
		l.sem.Release(1)
		l.notify()
	}, nil
}

func (l *ConcurrencyLimiter) notify() {
	if l.observer != nil {
		l.observer(l.active.Load(), l.waiting.Load())
	}
}

// UnaryConcurrencyLimitInterceptor returns a unary server interceptor that
// runs each call in one of the limiter's slots.
func UnaryConcurrencyLimitInterceptor(limiter *ConcurrencyLimiter) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		release, err := limiter.Acquire(ctx)
		if err != nil {
			limiter.logger.WithContext(ctx).Debug("call abandoned while waiting for a worker",
				observability.String("method", info.FullMethod),
				observability.Error(err),
			)
			return nil, status.FromContextError(ctx.Err()).Err()
		}
		defer release()

		return handler(ctx, req)
	}
}
