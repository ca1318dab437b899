package experiment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/qrr/internal/config"
	"github.com/san-kum/qrr/internal/dynamo"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func quickConfig() *config.Config {
	cfg := config.GetPreset("quick")
	cfg.Particles = 200
	cfg.Steps = 40
	return cfg
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"classical", "deterministic", "fit", "quantum"}, r.ListModels())
	assert.Equal(t, []string{"euler-maruyama", "rk4"}, r.ListIntegrators())
	assert.Equal(t, []string{"particle", "shared"}, r.ListNoise())

	m, err := r.GetModel("fit", 3)
	require.NoError(t, err)
	assert.Equal(t, "fit", m.Name())

	_, err = r.GetModel("quantum", -250)
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))

	_, err = r.GetIntegrator("rk4")
	assert.NoError(t, err)
	_, err = r.GetIntegrator("heun")
	assert.Error(t, err)

	src, err := r.GetNoise("", 1)
	require.NoError(t, err)
	assert.True(t, src.Concurrent())
}

func TestExperimentRun(t *testing.T) {
	cfg := quickConfig()
	e := New(cfg, WithLogger(quiet), WithPreset("quick"))
	require.NoError(t, e.Setup())
	assert.Len(t, e.Initial(), 200)
	assert.InDelta(t, 3600, e.Table().Max(), 1e-9)

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40, res.StepsTaken)
	assert.Equal(t, 20, res.Mid.Step)
	assert.True(t, res.Final.Gammas.IsValid())
	assert.Greater(t, res.Metrics["mean_gamma"], 1.0)
	assert.Contains(t, res.Metrics, "spread")
	assert.Equal(t, 0.0, res.Metrics["grid_overflow"])

	meta := e.Metadata()
	assert.Equal(t, "quick", meta.Preset)
	assert.Equal(t, "mono(1800)", meta.Distribution)
	assert.InDelta(t, 3600, meta.GridMax, 1e-9)
}

func TestExperimentDeterministicModelLosesEnergy(t *testing.T) {
	cfg := quickConfig()
	cfg.Model = "deterministic"
	res, err := New(cfg, WithLogger(quiet)).Run(context.Background())
	require.NoError(t, err)
	assert.Greater(t, res.Metrics["energy_loss"], 0.0)
	assert.InDelta(t, 0, res.Metrics["spread"], 1e-12)
	assert.Less(t, res.Final.Gammas[0], res.Mid.Gammas[0])
}

func TestExperimentWorkerCountInvariance(t *testing.T) {
	cfg := quickConfig()
	cfg.Particles = 1000
	a, err := New(cfg, WithLogger(quiet)).Run(context.Background())
	require.NoError(t, err)

	cfg.Workers = 4
	b, err := New(cfg, WithLogger(quiet)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, a.Final.Gammas, b.Final.Gammas)
}

func TestExperimentInvalid(t *testing.T) {
	cfg := quickConfig()
	cfg.Integrator = "verlet"
	_, err := New(cfg, WithLogger(quiet)).Run(context.Background())
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))

	cfg = quickConfig()
	cfg.Dt = -1
	e := New(cfg, WithLogger(quiet))
	assert.True(t, errors.Is(e.Setup(), dynamo.ErrConfiguration))
	assert.Error(t, e.AddObserver(nil))
}

func TestExperimentDoesNotShareConfig(t *testing.T) {
	cfg := quickConfig()
	e := New(cfg, WithLogger(quiet))
	cfg.Steps = 1
	assert.Equal(t, 40, e.Config().Steps)
}

func TestExperimentRK4Reference(t *testing.T) {
	cfg := quickConfig()
	cfg.Model = "deterministic"
	em, err := New(cfg, WithLogger(quiet)).Run(context.Background())
	require.NoError(t, err)

	cfg.Integrator = "rk4"
	rk, err := New(cfg, WithLogger(quiet)).Run(context.Background())
	require.NoError(t, err)

	assert.Less(t, rk.Final.Gammas[0], 1800.0)
	assert.InEpsilon(t, em.Final.Gammas[0], rk.Final.Gammas[0], 1e-3)
	assert.InDelta(t, 0, rk.Metrics["spread"], 1e-12)
}
