// Package noise supplies the standard-normal variates that drive the
// Wiener increments of the stochastic integrator.
//
// A [Source] hands out one [Stream] per particle. Two strategies are
// provided: [Shared] draws every variate from a single sequential stream
// (reproducible only when particles are stepped in index order) and
// [PerParticle] derives an independent PCG stream from the seed and the
// particle index, which keeps runs bit-identical for any worker count.
package noise

import (
	"fmt"
	"math/rand/v2"
)

// Stream yields standard-normal variates. *rand.Rand satisfies it.
type Stream interface {
	NormFloat64() float64
}

type Source interface {
	// Stream returns the stream used for the given particle.
	Stream(particle int) Stream
	// Concurrent reports whether streams of distinct particles may be
	// drawn from different goroutines.
	Concurrent() bool
}

const (
	StrategyShared      = "shared"
	StrategyPerParticle = "particle"
)

// New returns the named strategy seeded with seed.
func New(strategy string, seed uint64) (Source, error) {
	switch strategy {
	case StrategyShared:
		return Shared(seed), nil
	case StrategyPerParticle, "":
		return PerParticle(seed), nil
	default:
		return nil, fmt.Errorf("unknown noise strategy: %s", strategy)
	}
}

// Strategies lists the names accepted by New.
func Strategies() []string {
	return []string{StrategyPerParticle, StrategyShared}
}

type shared struct {
	rng *rand.Rand
}

// Shared returns a source whose particles all draw from one PCG stream.
func Shared(seed uint64) Source {
	return &shared{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *shared) Stream(int) Stream { return s.rng }
func (s *shared) Concurrent() bool  { return false }

type perParticle struct {
	seed uint64
}

// PerParticle returns a source with one PCG stream per particle index.
func PerParticle(seed uint64) Source {
	return perParticle{seed: seed}
}

func (p perParticle) Stream(particle int) Stream {
	return rand.New(rand.NewPCG(p.seed, uint64(particle)))
}

func (p perParticle) Concurrent() bool { return true }

type constant float64

func (c constant) NormFloat64() float64 { return float64(c) }

type constantSource struct {
	z constant
}

// Constant returns a source that always yields z.
func Constant(z float64) Source {
	return constantSource{z: constant(z)}
}

func (c constantSource) Stream(int) Stream { return c.z }
func (c constantSource) Concurrent() bool  { return true }

type replay struct {
	seq []float64
	pos int
}

func (r *replay) NormFloat64() float64 {
	if len(r.seq) == 0 {
		return 0
	}
	z := r.seq[r.pos%len(r.seq)]
	r.pos++
	return z
}

type replaySource struct {
	seq []float64
}

// Replay returns a source in which every particle receives the same
// sequence of variates, cycling once the sequence is exhausted.
func Replay(seq []float64) Source {
	c := make([]float64, len(seq))
	copy(c, seq)
	return replaySource{seq: c}
}

func (r replaySource) Stream(int) Stream { return &replay{seq: r.seq} }
func (r replaySource) Concurrent() bool  { return true }
