package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/qrr/internal/coeff"
	"github.com/san-kum/qrr/internal/dynamo"
	"github.com/san-kum/qrr/internal/integrators"
	"github.com/san-kum/qrr/internal/noise"
)

type Registry struct {
	models      map[string]func(kalpha float64) (coeff.Model, error)
	integrators map[string]func() dynamo.Integrator
	noise       map[string]func(seed uint64) noise.Source
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]func(float64) (coeff.Model, error)),
		integrators: make(map[string]func() dynamo.Integrator),
		noise:       make(map[string]func(uint64) noise.Source),
	}

	for _, name := range coeff.Models() {
		r.models[name] = func(k float64) (coeff.Model, error) { return coeff.New(name, k) }
	}

	r.integrators["euler-maruyama"] = func() dynamo.Integrator { return integrators.NewEulerMaruyama() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }

	r.noise[noise.StrategyPerParticle] = noise.PerParticle
	r.noise[noise.StrategyShared] = noise.Shared

	return r
}

func (r *Registry) GetModel(name string, kalpha float64) (coeff.Model, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown coefficient model: %s", name)
	}
	return fn(kalpha)
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

// GetNoise returns the named noise strategy. An empty name selects
// per-particle streams.
func (r *Registry) GetNoise(name string, seed uint64) (noise.Source, error) {
	if name == "" {
		name = noise.StrategyPerParticle
	}
	fn, ok := r.noise[name]
	if !ok {
		return nil, fmt.Errorf("unknown noise strategy: %s", name)
	}
	return fn(seed), nil
}

func (r *Registry) ListModels() []string      { return keys(r.models) }
func (r *Registry) ListIntegrators() []string { return keys(r.integrators) }
func (r *Registry) ListNoise() []string       { return keys(r.noise) }

func keys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
