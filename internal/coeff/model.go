// Package coeff implements the drift and diffusion coefficients of the
// Fokker-Planck description of quantum radiation reaction, and their
// tabulation over the Lorentz factor.
//
// In units where time is measured in the simulation's time unit and
// Kalpha carries the fine-structure prefactor, the coefficients are
//
//	S(chi)        = (2/3) Kalpha chi^2 G(chi)
//	R(chi, gamma) = Kalpha gamma chi^3 H(chi)
//
// with chi = chi0 gamma / gamma0.
package coeff

import (
	"math"
	"sort"

	"github.com/san-kum/qrr/internal/dynamo"
)

// Chi returns the quantum nonlinearity parameter of a particle with Lorentz
// factor gamma, given chi0 at the reference Lorentz factor gamma0.
func Chi(gamma, chi0, gamma0 float64) float64 {
	return chi0 * gamma / gamma0
}

// Model computes the instantaneous drift and diffusion rates.
type Model interface {
	Name() string
	Drift(chi float64) float64
	Diffusion(chi, gamma float64) float64
}

// Quantum uses the full quantum suppression factors G and H.
type Quantum struct {
	Kalpha float64
}

func NewQuantum(kalpha float64) *Quantum { return &Quantum{Kalpha: kalpha} }

func (q *Quantum) Name() string { return "quantum" }

// Strength returns the radiation-reaction prefactor Kalpha.
func (q *Quantum) Strength() float64 { return q.Kalpha }

func (q *Quantum) Drift(chi float64) float64 {
	if chi <= 0 {
		return 0
	}
	return 2.0 / 3.0 * q.Kalpha * chi * chi * G(chi)
}

func (q *Quantum) Diffusion(chi, gamma float64) float64 {
	if chi <= 0 {
		return 0
	}
	return q.Kalpha * gamma * chi * chi * chi * H(chi)
}

// Classical drops the quantum suppression: Landau-Lifshitz drift with the
// classical fluctuation rate.
type Classical struct {
	Kalpha float64
}

func NewClassical(kalpha float64) *Classical { return &Classical{Kalpha: kalpha} }

func (c *Classical) Name() string { return "classical" }

func (c *Classical) Strength() float64 { return c.Kalpha }

func (c *Classical) Drift(chi float64) float64 {
	if chi <= 0 {
		return 0
	}
	return 2.0 / 3.0 * c.Kalpha * chi * chi
}

func (c *Classical) Diffusion(chi, gamma float64) float64 {
	if chi <= 0 {
		return 0
	}
	return c.Kalpha * gamma * chi * chi * chi
}

// Deterministic keeps the quantum-corrected drift and discards diffusion.
type Deterministic struct {
	Quantum
}

func NewDeterministic(kalpha float64) *Deterministic {
	return &Deterministic{Quantum{Kalpha: kalpha}}
}

func (d *Deterministic) Name() string { return "deterministic" }

func (d *Deterministic) Diffusion(float64, float64) float64 { return 0 }

// Fitted replaces G by its analytic fit in the drift term.
type Fitted struct {
	Quantum
}

func NewFitted(kalpha float64) *Fitted { return &Fitted{Quantum{Kalpha: kalpha}} }

func (f *Fitted) Name() string { return "fit" }

func (f *Fitted) Drift(chi float64) float64 {
	if chi <= 0 {
		return 0
	}
	return 2.0 / 3.0 * f.Kalpha * chi * chi * GFit(chi)
}

// Constant returns fixed rates regardless of chi and gamma.
type Constant struct {
	S, R float64
}

func (c Constant) Name() string                       { return "constant" }
func (c Constant) Drift(float64) float64              { return c.S }
func (c Constant) Diffusion(float64, float64) float64 { return c.R }

var models = map[string]func(kalpha float64) Model{
	"quantum":       func(k float64) Model { return NewQuantum(k) },
	"classical":     func(k float64) Model { return NewClassical(k) },
	"deterministic": func(k float64) Model { return NewDeterministic(k) },
	"fit":           func(k float64) Model { return NewFitted(k) },
}

// New returns the named model. kalpha must be positive and finite; errors
// wrap dynamo.ErrConfiguration.
func New(name string, kalpha float64) (Model, error) {
	fn, ok := models[name]
	if !ok {
		return nil, dynamo.Configurationf("unknown coefficient model: %s", name)
	}
	if err := checkStrength(kalpha); err != nil {
		return nil, err
	}
	return fn(kalpha), nil
}

func checkStrength(kalpha float64) error {
	if !(kalpha > 0) || math.IsInf(kalpha, 0) {
		return dynamo.Configurationf("kalpha must be positive, got %g", kalpha)
	}
	return nil
}

// Models lists the names accepted by New.
func Models() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
