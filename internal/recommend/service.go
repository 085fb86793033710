// Package recommend implements the Recommend operation: bounded uniform
// sampling without replacement from a catalog category.
package recommend

import (
	"context"

	"github.com/vyrodovalexey/recommendations/internal/catalog"
	"github.com/vyrodovalexey/recommendations/internal/observability"
)

// Request is a recommendation lookup.
type Request struct {
	// UserID identifies the caller. It is logged but does not influence
	// sampling.
	UserID     int32
	Category   catalog.Category
	MaxResults int
}

// Response carries the sampled items in unspecified order.
type Response struct {
	Items []catalog.Item
}

// Service answers recommendation requests from an immutable catalog.
// It is safe for concurrent use.
type Service struct {
	catalog *catalog.Catalog
	source  Source
	logger  observability.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSource sets the random source used for sampling.
func WithSource(src Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithLogger sets the logger for the service.
func WithLogger(logger observability.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a Service over the given catalog.
func NewService(c *catalog.Catalog, opts ...Option) *Service {
	s := &Service{
		catalog: c,
		source:  DefaultSource(),
		logger:  observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Recommend returns min(MaxResults, len(items)) distinct items drawn
// uniformly from the requested category. A category missing from the
// catalog yields a *CategoryNotFoundError.
func (s *Service) Recommend(ctx context.Context, req Request) (Response, error) {
	items, ok := s.catalog.Lookup(req.Category)
	if !ok {
		return Response{}, &CategoryNotFoundError{Category: req.Category}
	}

	n := min(max(req.MaxResults, 0), len(items))
	picked := sample(s.source, items, n)

	s.logger.WithContext(ctx).Debug("recommendations sampled",
		observability.Int("user_id", int(req.UserID)),
		observability.String("category", req.Category.String()),
		observability.Int("max_results", req.MaxResults),
		observability.Int("returned", len(picked)),
	)

	return Response{Items: picked}, nil
}

// sample draws n items without replacement using a partial Fisher-Yates
// shuffle over a per-call index slice. items is never modified.
func sample(src Source, items []catalog.Item, n int) []catalog.Item {
	out := make([]catalog.Item, 0, n)
	if n == 0 {
		return out
	}

	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}

	for i := 0; i < n; i++ {
		j := i + src.IntN(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
		out = append(out, items[idx[i]])
	}

	return out
}
