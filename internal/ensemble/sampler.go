// Package ensemble draws initial Lorentz-factor ensembles and summarises
// snapshots as statistics and histograms.
package ensemble

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/san-kum/qrr/internal/dynamo"
)

// Distribution parameters for an initial ensemble.
type Distribution struct {
	// Kind is one of "gaussian", "mono" or "uniform".
	Kind  string  `yaml:"kind" toml:"kind" json:"kind"`
	Gamma float64 `yaml:"gamma0" toml:"gamma0" json:"gamma0"`
	// Width is the standard deviation for gaussian and the half width for
	// uniform. It is ignored for mono.
	Width float64 `yaml:"width" toml:"width" json:"width"`
}

type sampler func(d Distribution, rng *rand.Rand) float64

// samplerStream offsets the first PCG word so the ensemble stream never
// coincides with a noise stream of the same seed, whose first word is the
// seed itself.
const samplerStream = 0xd1b54a32d192ed03

var samplers = map[string]sampler{
	"gaussian": func(d Distribution, rng *rand.Rand) float64 { return d.Gamma + d.Width*rng.NormFloat64() },
	"mono":     func(d Distribution, _ *rand.Rand) float64 { return d.Gamma },
	"uniform":  func(d Distribution, rng *rand.Rand) float64 { return d.Gamma + d.Width*(2*rng.Float64()-1) },
}

// Kinds lists the supported distribution names.
func Kinds() []string {
	names := make([]string, 0, len(samplers))
	for name := range samplers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d Distribution) Validate() error {
	if _, ok := samplers[d.Kind]; !ok {
		return dynamo.Configurationf("unknown distribution: %s", d.Kind)
	}
	if !(d.Gamma >= 1) || math.IsInf(d.Gamma, 0) {
		return dynamo.Configurationf("distribution centre must be finite and at least 1, got %g", d.Gamma)
	}
	if d.Width < 0 || math.IsNaN(d.Width) || math.IsInf(d.Width, 0) {
		return dynamo.Configurationf("distribution width must be finite and non-negative, got %g", d.Width)
	}
	return nil
}

func (d Distribution) String() string {
	if d.Kind == "mono" {
		return fmt.Sprintf("mono(%g)", d.Gamma)
	}
	return fmt.Sprintf("%s(%g, %g)", d.Kind, d.Gamma, d.Width)
}

// Sample draws n Lorentz factors from d. Draws below 1 are clamped to 1.
// The same seed always yields the same ensemble.
func Sample(d Distribution, n int, seed uint64) (dynamo.Ensemble, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, dynamo.Configurationf("particle count must not be negative, got %d", n)
	}

	draw := samplers[d.Kind]
	rng := rand.New(rand.NewPCG(seed^samplerStream, seed))
	ens := make(dynamo.Ensemble, n)
	for i := range ens {
		ens[i] = math.Max(1, draw(d, rng))
	}
	return ens, nil
}
