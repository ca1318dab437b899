package config

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/qrr/internal/coeff"
	"github.com/san-kum/qrr/internal/dynamo"
	"github.com/san-kum/qrr/internal/ensemble"
	"github.com/san-kum/qrr/internal/interp"
	"github.com/san-kum/qrr/internal/noise"
)

const (
	DefaultParticles = 10000
	DefaultSteps     = 1000
	DefaultDt        = 0.005
	DefaultGamma0    = 1800.0
	DefaultWidth     = 180.0
	DefaultChi0      = 1.0
	DefaultKalpha    = 250.0
	DefaultSeed      = 1
)

type Config struct {
	Model      string  `yaml:"model" toml:"model"`
	Integrator string  `yaml:"integrator" toml:"integrator"`
	Noise      string  `yaml:"noise" toml:"noise"`
	Seed       uint64  `yaml:"seed" toml:"seed"`
	Particles  int     `yaml:"particles" toml:"particles"`
	Steps      int     `yaml:"steps" toml:"steps"`
	Dt         float64 `yaml:"dt" toml:"dt"`
	Workers    int     `yaml:"workers" toml:"workers"`
	// Chi0 is the quantum nonlinearity parameter at Gamma0 of the
	// distribution.
	Chi0     float64 `yaml:"chi0" toml:"chi0"`
	Kalpha   float64 `yaml:"kalpha" toml:"kalpha"`
	GridSize int     `yaml:"grid_size" toml:"grid_size"`
	// Domain is "clamp" or "strict" and decides what happens to lookups
	// outside the coefficient grid.
	Domain       string                `yaml:"domain" toml:"domain"`
	Snapshots    []int                 `yaml:"snapshots,omitempty" toml:"snapshots,omitempty"`
	Distribution ensemble.Distribution `yaml:"distribution" toml:"distribution"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      "quantum",
		Integrator: "euler-maruyama",
		Noise:      noise.StrategyPerParticle,
		Seed:       DefaultSeed,
		Particles:  DefaultParticles,
		Steps:      DefaultSteps,
		Dt:         DefaultDt,
		Workers:    1,
		Chi0:       DefaultChi0,
		Kalpha:     DefaultKalpha,
		GridSize:   coeff.DefaultGridSize,
		Domain:     interp.Clamp.String(),
		Distribution: ensemble.Distribution{
			Kind:  "gaussian",
			Gamma: DefaultGamma0,
			Width: DefaultWidth,
		},
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Snapshots = slices.Clone(c.Snapshots)
	return &cp
}

// Validate checks ranges and names. Errors wrap dynamo.ErrConfiguration.
func (c *Config) Validate() error {
	if c.Particles < 0 {
		return dynamo.Configurationf("particles must not be negative, got %d", c.Particles)
	}
	if c.Steps <= 0 {
		return dynamo.Configurationf("steps must be positive, got %d", c.Steps)
	}
	if !positive(c.Dt) {
		return dynamo.Configurationf("dt must be positive, got %g", c.Dt)
	}
	if !positive(c.Chi0) {
		return dynamo.Configurationf("chi0 must be positive, got %g", c.Chi0)
	}
	if !positive(c.Kalpha) {
		return dynamo.Configurationf("kalpha must be positive, got %g", c.Kalpha)
	}
	if c.GridSize < 2 {
		return dynamo.Configurationf("grid_size must be at least 2, got %d", c.GridSize)
	}
	if c.Workers < 0 {
		return dynamo.Configurationf("workers must not be negative, got %d", c.Workers)
	}
	if _, err := coeff.New(c.Model, c.Kalpha); err != nil {
		return err
	}
	if !slices.Contains(noise.Strategies(), c.Noise) && c.Noise != "" {
		return dynamo.Configurationf("unknown noise strategy: %s", c.Noise)
	}
	if _, err := interp.ParsePolicy(c.Domain); err != nil {
		return dynamo.Configurationf("%v", err)
	}
	return c.Distribution.Validate()
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

type format int

const (
	formatYAML format = iota
	formatTOML
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".toml":
		return formatTOML, nil
	default:
		return 0, fmt.Errorf("unsupported config format: %q", filepath.Ext(path))
	}
}

// Load reads a YAML or TOML file on top of DefaultConfig. Unknown keys are
// rejected.
func Load(path string) (*Config, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	switch f {
	case formatTOML:
		meta, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, dynamo.Configurationf("%s: unknown keys %v", path, undecoded)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	f, err := formatOf(path)
	if err != nil {
		return err
	}

	var data []byte
	switch f {
	case formatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	default:
		data, err = yaml.Marshal(cfg)
		if err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}
