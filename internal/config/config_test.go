package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/qrr/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != "quantum" {
		t.Errorf("expected model quantum, got %s", cfg.Model)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Steps <= 0 {
		t.Error("steps should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("paper")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Distribution.Gamma != 1800 {
		t.Errorf("expected gamma0 1800, got %f", cfg.Distribution.Gamma)
	}

	cfg.Steps = 1
	if Presets["paper"].Config.Steps == 1 {
		t.Error("GetPreset should return a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsAreValid(t *testing.T) {
	names := ListPresets()
	assert.Equal(t, []string{"classical", "deterministic", "paper", "quick"}, names)
	for _, name := range names {
		assert.NoError(t, GetPreset(name).Validate(), name)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(c *Config)
	}{
		{"negative particles", func(c *Config) { c.Particles = -1 }},
		{"zero steps", func(c *Config) { c.Steps = 0 }},
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"zero chi0", func(c *Config) { c.Chi0 = 0 }},
		{"negative kalpha", func(c *Config) { c.Kalpha = -2 }},
		{"tiny grid", func(c *Config) { c.GridSize = 1 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"unknown model", func(c *Config) { c.Model = "bogus" }},
		{"unknown noise", func(c *Config) { c.Noise = "pink" }},
		{"unknown domain", func(c *Config) { c.Domain = "wrap" }},
		{"unknown distribution", func(c *Config) { c.Distribution.Kind = "cauchy" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, dynamo.ErrConfiguration))
		})
	}

	cfg := DefaultConfig()
	cfg.Particles = 0
	assert.NoError(t, cfg.Validate())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, ext := range []string{".yaml", ".yml", ".toml"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "run"+ext)
			cfg := GetPreset("quick")
			cfg.Snapshots = []int{10, 50}
			cfg.Domain = "strict"
			require.NoError(t, Save(path, cfg))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.toml")
	require.NoError(t, os.WriteFile(path, []byte("steps = 42\n\n[distribution]\nkind = \"mono\"\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Steps)
	assert.Equal(t, "mono", cfg.Distribution.Kind)
	assert.Equal(t, DefaultGamma0, cfg.Distribution.Gamma)
	assert.Equal(t, DefaultDt, cfg.Dt)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()

	yml := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(yml, []byte("stepz: 10\n"), 0644))
	_, err := Load(yml)
	assert.Error(t, err)

	tml := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(tml, []byte("stepz = 10\n"), 0644))
	_, err = Load(tml)
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))

	_, err = Load(filepath.Join(dir, "cfg.json"))
	assert.Error(t, err)
}
