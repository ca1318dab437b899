// Package experiment wires a configuration into a ready-to-run simulation:
// it samples the initial ensemble, tabulates the coefficients and attaches
// the standard metrics.
package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/qrr/internal/coeff"
	"github.com/san-kum/qrr/internal/config"
	"github.com/san-kum/qrr/internal/dynamo"
	"github.com/san-kum/qrr/internal/ensemble"
	"github.com/san-kum/qrr/internal/interp"
	"github.com/san-kum/qrr/internal/metrics"
	"github.com/san-kum/qrr/internal/sim"
	"github.com/san-kum/qrr/internal/storage"
)

type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	logger    *slog.Logger
	preset    string
	initial   dynamo.Ensemble
	table     *coeff.Table
	simulator *sim.Simulator
	overflow  *metrics.GridOverflow
	elapsed   time.Duration
}

type Option func(*Experiment)

func WithLogger(l *slog.Logger) Option {
	return func(e *Experiment) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPreset records the preset name the configuration came from.
func WithPreset(name string) Option {
	return func(e *Experiment) { e.preset = name }
}

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) { e.registry = r }
}

func New(cfg *config.Config, opts ...Option) *Experiment {
	e := &Experiment{
		cfg:    cfg.Clone(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	return e
}

// Setup validates the configuration and builds the ensemble, the coefficient
// table and the simulator. Errors wrap dynamo.ErrConfiguration.
func (e *Experiment) Setup() error {
	cfg := e.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}

	model, err := e.registry.GetModel(cfg.Model, cfg.Kalpha)
	if err != nil {
		return dynamo.Configurationf("%v", err)
	}
	integrator, err := e.registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return dynamo.Configurationf("%v", err)
	}
	src, err := e.registry.GetNoise(cfg.Noise, cfg.Seed)
	if err != nil {
		return dynamo.Configurationf("%v", err)
	}
	policy, err := interp.ParsePolicy(cfg.Domain)
	if err != nil {
		return dynamo.Configurationf("%v", err)
	}

	e.initial, err = ensemble.Sample(cfg.Distribution, cfg.Particles, cfg.Seed)
	if err != nil {
		return err
	}

	gammaMax := cfg.Distribution.Gamma
	if len(e.initial) > 0 {
		gammaMax = e.initial.Max()
	}
	start := time.Now()
	e.table, err = coeff.BuildTable(model, coeff.Params{
		Chi0:     cfg.Chi0,
		Gamma0:   cfg.Distribution.Gamma,
		GammaMax: gammaMax,
		Size:     cfg.GridSize,
		Policy:   policy,
	})
	if err != nil {
		return err
	}
	e.logger.Debug("coefficient table built",
		"model", model.Name(), "nodes", cfg.GridSize, "min", e.table.Min(), "max", e.table.Max(),
		"elapsed", time.Since(start))

	e.simulator = sim.New(integrator, e.table.Drift, e.table.Diffusion, src, sim.WithLogger(e.logger))
	for _, m := range metrics.Standard(e.initial, e.table.Max()) {
		if o, ok := m.(*metrics.GridOverflow); ok {
			e.overflow = o
		}
		e.simulator.AddMetric(m)
	}
	return nil
}

// Run executes the simulation. Setup is called first if needed.
func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		if err := e.Setup(); err != nil {
			return nil, err
		}
	}

	e.logger.Info("simulation started",
		"model", e.cfg.Model, "particles", len(e.initial), "steps", e.cfg.Steps, "dt", e.cfg.Dt,
		"noise", e.cfg.Noise, "workers", e.cfg.Workers)

	start := time.Now()
	res, err := e.simulator.Run(ctx, e.initial, dynamo.Config{
		Steps:         e.cfg.Steps,
		Dt:            e.cfg.Dt,
		Workers:       e.cfg.Workers,
		SnapshotSteps: e.cfg.Snapshots,
	})
	e.elapsed = time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("simulation: %w", err)
	}

	if e.overflow != nil && e.overflow.Value() > 0 {
		e.logger.Warn("particles left the coefficient grid; their rates were clamped",
			"particles", int(e.overflow.Value()), "first_step", e.overflow.FirstStep(), "grid_max", e.table.Max())
	}
	e.logger.Info("simulation finished", "elapsed", e.elapsed, "mean_gamma", res.Metrics["mean_gamma"])
	return res, nil
}

// AddObserver attaches o to the simulator. Setup must have been called.
func (e *Experiment) AddObserver(o dynamo.Observer) error {
	if e.simulator == nil {
		return fmt.Errorf("experiment not set up")
	}
	e.simulator.AddObserver(o)
	return nil
}

func (e *Experiment) Initial() dynamo.Ensemble { return e.initial }

func (e *Experiment) Table() *coeff.Table { return e.table }

func (e *Experiment) Config() *config.Config { return e.cfg }

// Metadata describes the run for storage.
func (e *Experiment) Metadata() storage.RunMetadata {
	cfg := e.cfg
	meta := storage.RunMetadata{
		Preset:       e.preset,
		Model:        cfg.Model,
		Seed:         cfg.Seed,
		Noise:        cfg.Noise,
		Integrator:   cfg.Integrator,
		Distribution: cfg.Distribution.String(),
		Particles:    cfg.Particles,
		Steps:        cfg.Steps,
		Dt:           cfg.Dt,
		Chi0:         cfg.Chi0,
		Gamma0:       cfg.Distribution.Gamma,
		Kalpha:       cfg.Kalpha,
		GridSize:     cfg.GridSize,
		Domain:       cfg.Domain,
		Workers:      cfg.Workers,
		Elapsed:      e.elapsed.Seconds(),
	}
	if e.table != nil {
		meta.GridMax = e.table.Max()
	}
	return meta
}
