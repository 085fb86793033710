package recommend

import (
	"math/rand/v2"
	"sync"
)

// Source provides the randomness used for sampling. Implementations must be
// safe for concurrent use.
type Source interface {
	// IntN returns a uniform value in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// globalSource delegates to the math/rand/v2 top-level generator, which is
// safe for concurrent use.
type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// DefaultSource returns the process-wide concurrency-safe source.
func DefaultSource() Source {
	return globalSource{}
}

// LockedSource serializes access to a *rand.Rand, which is not safe for
// concurrent use on its own.
type LockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewLockedSource wraps r with a mutex.
func NewLockedSource(r *rand.Rand) *LockedSource {
	return &LockedSource{rnd: r}
}

// NewSeededSource returns a LockedSource over a PCG generator seeded with
// the given values.
func NewSeededSource(seed1, seed2 uint64) *LockedSource {
	return NewLockedSource(rand.New(rand.NewPCG(seed1, seed2))) //nolint:gosec // sampling, not crypto
}

// IntN implements Source.
func (s *LockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.IntN(n)
}
