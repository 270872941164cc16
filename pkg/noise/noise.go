// Package noise provides the randomness sources measurements draw from. A Sampler is injected into
// every measurement constructor so tests can fix the seed while production code uses a
// cryptographically secure source.
package noise

import (
	crand "crypto/rand"
	"math"
	"math/rand/v2"
	"sync"

	dpnoise "github.com/google/differential-privacy/go/v3/noise"

	"github.com/l7mp/dpcore/pkg/dperr"
)

// Sampler draws zero-centered noise. Implementations must be safe for concurrent use.
type Sampler interface {
	// Laplace draws from the Laplace distribution with the given scale.
	Laplace(scale float64) (float64, error)
	// Gaussian draws from the normal distribution with the given standard deviation.
	Gaussian(sigma float64) (float64, error)
	String() string
}

func checkScale(what string, s float64) error {
	if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
		return dperr.NewInvalidDistanceError("%s must be finite and non-negative, got %g", what, s)
	}
	return nil
}

// seeded is a reproducible sampler.
type seeded struct {
	mu   sync.Mutex
	rng  *rand.Rand
	seed uint64
}

// NewSeeded returns a deterministic sampler. Not suitable for releasing data.
func NewSeeded(seed uint64) Sampler {
	return &seeded{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), seed: seed}
}

func (s *seeded) Laplace(scale float64) (float64, error) {
	if err := checkScale("laplace scale", scale); err != nil {
		return 0, err
	}
	if scale == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// the difference of two exponentials is Laplace distributed
	return scale * (s.rng.ExpFloat64() - s.rng.ExpFloat64()), nil
}

func (s *seeded) Gaussian(sigma float64) (float64, error) {
	if err := checkScale("gaussian sigma", sigma); err != nil {
		return 0, err
	}
	if sigma == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return sigma * s.rng.NormFloat64(), nil
}

func (s *seeded) String() string { return "seeded" }

// secure draws Laplace noise through the Google DP library and Gaussian noise from a ChaCha8 stream seeded by the operating system.
type secure struct {
	mu      sync.Mutex
	laplace dpnoise.Noise
	rng     *rand.Rand
}

// NewSecure returns a sampler backed by cryptographically secure randomness.
func NewSecure() (Sampler, error) {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, dperr.NewRawError("cannot seed secure sampler: %s", err)
	}
	return &secure{laplace: dpnoise.Laplace(), rng: rand.New(rand.NewChaCha8(seed))}, nil
}

func (s *secure) Laplace(scale float64) (float64, error) {
	if err := checkScale("laplace scale", scale); err != nil {
		return 0, err
	}
	if scale == 0 {
		return 0, nil
	}
	// l0=1, lInf=scale, eps=1 yields a Laplace scale of exactly scale
	x, err := s.laplace.AddNoiseFloat64(0, 1, scale, 1, 0)
	if err != nil {
		return 0, dperr.NewRawError("laplace sampler: %s", err)
	}
	return x, nil
}

func (s *secure) Gaussian(sigma float64) (float64, error) {
	if err := checkScale("gaussian sigma", sigma); err != nil {
		return 0, err
	}
	if sigma == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return sigma * s.rng.NormFloat64(), nil
}

func (s *secure) String() string { return "secure" }
