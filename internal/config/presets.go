package config

import (
	"sort"

	"github.com/san-kum/qrr/internal/ensemble"
)

type Preset struct {
	Description string
	Config      Config
}

var Presets = map[string]Preset{
	"paper": {
		Description: "quantum model, 10000 electrons around gamma 1800, chi0 = 1",
		Config: Config{
			Model: "quantum", Integrator: "euler-maruyama", Noise: "particle", Seed: 1,
			Particles: 10000, Steps: 1000, Dt: 0.005, Workers: 1,
			Chi0: 1, Kalpha: DefaultKalpha, GridSize: 200, Domain: "clamp",
			Distribution: ensemble.Distribution{Kind: "gaussian", Gamma: 1800, Width: 180},
		},
	},
	"classical": {
		Description: "classical Larmor drift with unsuppressed diffusion",
		Config: Config{
			Model: "classical", Integrator: "euler-maruyama", Noise: "particle", Seed: 1,
			Particles: 10000, Steps: 1000, Dt: 0.005, Workers: 1,
			Chi0: 1, Kalpha: DefaultKalpha, GridSize: 200, Domain: "clamp",
			Distribution: ensemble.Distribution{Kind: "gaussian", Gamma: 1800, Width: 180},
		},
	},
	"deterministic": {
		Description: "quantum-corrected drift only, no stochastic broadening",
		Config: Config{
			Model: "deterministic", Integrator: "euler-maruyama", Noise: "particle", Seed: 1,
			Particles: 10000, Steps: 1000, Dt: 0.005, Workers: 1,
			Chi0: 1, Kalpha: DefaultKalpha, GridSize: 200, Domain: "clamp",
			Distribution: ensemble.Distribution{Kind: "gaussian", Gamma: 1800, Width: 180},
		},
	},
	"quick": {
		Description: "small monoenergetic beam for smoke tests",
		Config: Config{
			Model: "quantum", Integrator: "euler-maruyama", Noise: "particle", Seed: 7,
			Particles: 500, Steps: 200, Dt: 0.005, Workers: 1,
			Chi0: 1, Kalpha: DefaultKalpha, GridSize: 100, Domain: "clamp",
			Distribution: ensemble.Distribution{Kind: "mono", Gamma: 1800},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p.Config.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
