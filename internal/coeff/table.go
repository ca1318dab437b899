package coeff

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/qrr/internal/dynamo"
	"github.com/san-kum/qrr/internal/interp"
)

// DefaultGridSize is the number of Lorentz-factor nodes in a table.
const DefaultGridSize = 200

type Params struct {
	Chi0   float64
	Gamma0 float64
	// GammaMax is the largest Lorentz factor of the initial ensemble. The
	// grid spans [1, 2*GammaMax].
	GammaMax float64
	Size     int
	Policy   interp.Policy
}

func (p Params) validate() error {
	if p.Size < 2 {
		return dynamo.Configurationf("grid size must be at least 2, got %d", p.Size)
	}
	if !(p.Chi0 > 0) || math.IsInf(p.Chi0, 0) {
		return dynamo.Configurationf("chi0 must be positive, got %g", p.Chi0)
	}
	if !(p.Gamma0 > 0) || math.IsInf(p.Gamma0, 0) {
		return dynamo.Configurationf("reference gamma must be positive, got %g", p.Gamma0)
	}
	if !(p.GammaMax >= 1) || math.IsInf(p.GammaMax, 0) {
		return dynamo.Configurationf("maximum gamma must be finite and at least 1, got %g", p.GammaMax)
	}
	return nil
}

// Table holds the drift and diffusion interpolants over the Lorentz factor.
// It is read-only once built.
type Table struct {
	Drift     *interp.Linear
	Diffusion *interp.Linear
	Model     string
	gammas    []float64
}

// BuildTable samples m on a uniform grid of p.Size Lorentz factors between 1
// and 2*p.GammaMax and returns the two interpolants.
func BuildTable(m Model, p Params) (*Table, error) {
	if m == nil {
		return nil, dynamo.Configurationf("nil coefficient model")
	}
	if sm, ok := m.(interface{ Strength() float64 }); ok {
		if err := checkStrength(sm.Strength()); err != nil {
			return nil, err
		}
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	gammas := make([]float64, p.Size)
	floats.Span(gammas, 1, 2*p.GammaMax)

	drift := make([]float64, p.Size)
	diffusion := make([]float64, p.Size)
	for i, g := range gammas {
		chi := Chi(g, p.Chi0, p.Gamma0)
		drift[i] = m.Drift(chi)
		diffusion[i] = m.Diffusion(chi, g)
		if !(drift[i] >= 0) || !(diffusion[i] >= 0) {
			return nil, dynamo.Configurationf("%s rates at gamma %g are not non-negative: S=%g R=%g", m.Name(), g, drift[i], diffusion[i])
		}
	}

	dl, err := interp.NewLinear(gammas, drift, p.Policy)
	if err != nil {
		return nil, err
	}
	rl, err := interp.NewLinear(gammas, diffusion, p.Policy)
	if err != nil {
		return nil, err
	}

	return &Table{Drift: dl, Diffusion: rl, Model: m.Name(), gammas: gammas}, nil
}

// Gammas returns a copy of the grid nodes.
func (t *Table) Gammas() []float64 {
	c := make([]float64, len(t.gammas))
	copy(c, t.gammas)
	return c
}

func (t *Table) Min() float64 { return t.Drift.Min() }

func (t *Table) Max() float64 { return t.Drift.Max() }
