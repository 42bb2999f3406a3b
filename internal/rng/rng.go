// Package rng provides the single seeded randomness adapter the planner and
// the gun trajectory generator draw from. It exists so that a simulation run
// is fully reproducible from one seed, per the determinism requirement.
package rng

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
)

// epsilon is the floor WeightedIndex applies to every weight, so a zero
// weight still leaves its index reachable.
const epsilon = 1e-6

// Source wraps a math/rand.Rand behind the one entry point the rest of the
// module is allowed to use for randomness.
type Source struct {
	r *mathrand.Rand
}

// New returns a Source seeded deterministically by seed. A seed of 0 means
// "use OS entropy", mirroring the original setting's random-device fallback.
func New(seed uint64) *Source {
	if seed == 0 {
		seed = osEntropySeed()
	}
	return &Source{r: mathrand.New(mathrand.NewSource(int64(seed)))} // #nosec G404 -- deterministic simulation RNG, not security sensitive
}

func osEntropySeed() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is effectively unrecoverable; fall back to a
		// fixed nonzero seed rather than looping forever on entropy retrieval.
		return 1
	}
	return binary.LittleEndian.Uint64(buf[:])
}

// Float64 returns a pseudo-random number in [0.0, 1.0).
func (s *Source) Float64() float64 {
	return s.r.Float64()
}

// Intn returns a pseudo-random number in [0, n).
func (s *Source) Intn(n int) int {
	return s.r.Intn(n)
}

// UniformRange returns a pseudo-random number in [lo, hi).
func (s *Source) UniformRange(lo, hi float64) float64 {
	return lo + s.r.Float64()*(hi-lo)
}

// WeightedIndex draws one index into weights with probability proportional to
// weights[i]. Mirrors the original SharedRand::getRandWeightedIndex: build a
// running cumulative sum, take one uniform draw over the total, and scan
// linearly for the bucket the draw falls in. weights must be non-empty; any
// weight below epsilon (zero and negative ones included) is raised to
// epsilon so every index remains reachable.
func (s *Source) WeightedIndex(weights []float64) int {
	if len(weights) == 0 {
		panic("rng: WeightedIndex called with no weights")
	}
	cum := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		if w < epsilon {
			w = epsilon
		}
		total += w
		cum[i] = total
	}
	draw := s.r.Float64() * total
	for i, c := range cum {
		if draw <= c {
			return i
		}
	}
	return len(weights) - 1
}
