package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/qrr/internal/dynamo"
	"github.com/san-kum/qrr/internal/noise"
)

// minChunk is the smallest number of particles handed to one worker.
const minChunk = 256

// Simulator advances an ensemble through a fixed number of timesteps. A
// Simulator runs once; it is not safe for concurrent use.
type Simulator struct {
	integrator dynamo.Integrator
	drift      dynamo.Lookup
	diffusion  dynamo.Lookup
	noise      noise.Source
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	logger     *slog.Logger
	phase      dynamo.Phase
}

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(integrator dynamo.Integrator, drift, diffusion dynamo.Lookup, src noise.Source, opts ...Option) *Simulator {
	s := &Simulator{
		integrator: integrator,
		drift:      drift,
		diffusion:  diffusion,
		noise:      src,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		logger:     slog.Default(),
		phase:      dynamo.Initialized,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Phase() dynamo.Phase { return s.phase }

// Run integrates a copy of initial for cfg.Steps timesteps and returns the
// initial, midpoint and final snapshots. initial is never modified.
func (s *Simulator) Run(ctx context.Context, initial dynamo.Ensemble, cfg dynamo.Config) (*dynamo.Result, error) {
	if s.phase != dynamo.Initialized {
		return nil, dynamo.ErrCompleted
	}
	if err := s.validate(initial, cfg); err != nil {
		return nil, err
	}

	s.phase = dynamo.Running
	defer func() { s.phase = dynamo.Completed }()

	ens := initial.Clone()
	n := len(ens)
	mid := cfg.MidStep()

	extra := make(map[int]bool, len(cfg.SnapshotSteps))
	for _, k := range cfg.SnapshotSteps {
		if k >= 0 && k < cfg.Steps && k != mid {
			extra[k] = true
		}
	}

	streams := make([]noise.Stream, n)
	for i := range streams {
		streams[i] = s.noise.Stream(i)
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > 1 && !s.noise.Concurrent() {
		s.logger.Debug("noise source is sequential, stepping serially", "workers", workers)
		workers = 1
	}
	chunkErrs := make([]error, dynamo.Chunks(n, workers, minChunk))

	result := &dynamo.Result{
		Initial: snapshot(0, 0, ens),
		Extra:   make([]dynamo.Snapshot, 0, len(extra)),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	s.logger.Debug("run started", "particles", n, "steps", cfg.Steps, "dt", cfg.Dt, "workers", workers)
	progressEvery := cfg.Steps / 10
	if progressEvery < 1 {
		progressEvery = 1
	}

	for t := 0; t < cfg.Steps; t++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w at step %d: %w", dynamo.ErrContextCanceled, t, ctx.Err())
		default:
		}

		var err error
		if workers == 1 {
			err = s.stepRange(t, ens, streams, cfg.Dt, 0, n)
		} else {
			err = s.stepParallel(t, ens, streams, cfg.Dt, workers, chunkErrs)
		}
		if err != nil {
			return nil, err
		}
		result.StepsTaken++

		for _, m := range s.metrics {
			m.Observe(t, ens)
		}
		for _, obs := range s.observers {
			obs.OnStep(t, ens)
		}

		elapsed := float64(t+1) * cfg.Dt
		if t == mid {
			result.Mid = snapshot(t, elapsed, ens)
		}
		if extra[t] {
			result.Extra = append(result.Extra, snapshot(t, elapsed, ens))
		}
		if (t+1)%progressEvery == 0 {
			s.logger.Debug("progress", "step", t+1, "of", cfg.Steps)
		}
	}

	result.Final = snapshot(cfg.Steps, float64(cfg.Steps)*cfg.Dt, ens)
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) stepRange(t int, ens dynamo.Ensemble, streams []noise.Stream, dt float64, start, end int) error {
	for i := start; i < end; i++ {
		g, err := s.integrator.Step(ens[i], dt, s.drift, s.diffusion, streams[i])
		if err != nil {
			return &dynamo.SimulationError{Step: t, Particle: i, Gamma: ens[i], Wrapped: err}
		}
		ens[i] = g
	}
	return nil
}

// stepParallel partitions the ensemble by particle index. Each slot is
// written by exactly one worker, and the reported error is the one with
// the lowest particle index.
func (s *Simulator) stepParallel(t int, ens dynamo.Ensemble, streams []noise.Stream, dt float64, workers int, errs []error) error {
	for i := range errs {
		errs[i] = nil
	}
	dynamo.ParallelFor(len(ens), workers, minChunk, func(w, start, end int) {
		errs[w] = s.stepRange(t, ens, streams, dt, start, end)
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulator) validate(initial dynamo.Ensemble, cfg dynamo.Config) error {
	if s.integrator == nil || s.drift == nil || s.diffusion == nil || s.noise == nil {
		return dynamo.Configurationf("simulator is missing an integrator, coefficient table or noise source")
	}
	if cfg.Steps <= 0 {
		return dynamo.Configurationf("step count must be positive, got %d", cfg.Steps)
	}
	if !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0) {
		return dynamo.Configurationf("dt must be positive, got %g", cfg.Dt)
	}
	if cfg.Workers < 0 {
		return dynamo.Configurationf("worker count must not be negative, got %d", cfg.Workers)
	}
	if i := initial.FirstInvalid(); i >= 0 {
		return dynamo.Configurationf("initial gamma %g of particle %d is not a finite value >= 1", initial[i], i)
	}
	return nil
}

func snapshot(step int, t float64, ens dynamo.Ensemble) dynamo.Snapshot {
	return dynamo.Snapshot{Step: step, Time: t, Gammas: ens.Clone()}
}
