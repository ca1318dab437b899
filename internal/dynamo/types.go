package dynamo

import (
	"math"
	"sort"

	"github.com/san-kum/qrr/internal/noise"
)

// Ensemble holds one Lorentz factor per particle.
type Ensemble []float64

func (e Ensemble) Clone() Ensemble {
	c := make(Ensemble, len(e))
	copy(c, e)
	return c
}

// IsValid reports whether every value is finite and at least 1.
func (e Ensemble) IsValid() bool {
	return e.FirstInvalid() < 0
}

// FirstInvalid returns the index of the first non-finite or sub-unity value, or -1.
func (e Ensemble) FirstInvalid() int {
	for i, v := range e {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 1 {
			return i
		}
	}
	return -1
}

// Max returns the largest Lorentz factor, or 1 for an empty ensemble.
func (e Ensemble) Max() float64 {
	m := 1.0
	for _, v := range e {
		if v > m {
			m = v
		}
	}
	return m
}

// Lookup is a tabulated coefficient evaluated at a Lorentz factor.
type Lookup interface {
	Eval(gamma float64) (float64, error)
}

// Integrator advances a single particle by one timestep.
type Integrator interface {
	Step(gamma, dt float64, drift, diffusion Lookup, z noise.Stream) (float64, error)
}

type Metric interface {
	Name() string
	Observe(step int, ens Ensemble)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(step int, ens Ensemble)
}

// Phase is the lifecycle position of a simulator.
type Phase int

const (
	Initialized Phase = iota
	Running
	Completed
)

func (p Phase) String() string {
	switch p {
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

type Config struct {
	Steps   int
	Dt      float64
	Workers int
	// SnapshotSteps requests copies after the listed step indices in addition
	// to the initial, midpoint and final snapshots.
	SnapshotSteps []int
}

func DefaultConfig() Config {
	return Config{
		Steps:   1000,
		Dt:      0.005,
		Workers: 1,
	}
}

// MidStep is the step index after which the midpoint snapshot is taken.
func (c Config) MidStep() int {
	return c.Steps / 2
}

// Snapshot is an immutable copy of the ensemble. Time is the simulated time
// elapsed when it was taken and orders snapshots unambiguously. Step is 0
// for the initial copy and Steps for the final one; midpoint and extra
// copies carry the loop index of the step they were taken after, which is
// also the index requested through SnapshotSteps.
type Snapshot struct {
	Step   int
	Time   float64
	Gammas Ensemble
}

type Result struct {
	Initial    Snapshot
	Mid        Snapshot
	Final      Snapshot
	Extra      []Snapshot
	StepsTaken int
	Metrics    map[string]float64
}

// Snapshots returns every captured snapshot ordered by simulated time.
func (r *Result) Snapshots() []Snapshot {
	all := make([]Snapshot, 0, 3+len(r.Extra))
	all = append(all, r.Initial, r.Mid)
	all = append(all, r.Extra...)
	all = append(all, r.Final)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Time < all[j].Time })
	return all
}
