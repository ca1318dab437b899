package integrators

import (
	"github.com/san-kum/qrr/internal/dynamo"
	"github.com/san-kum/qrr/internal/noise"
)

// RK4 integrates the mean-field equation dγ/dt = -S(γ) with the classical
// fourth-order Runge-Kutta scheme. Diffusion is ignored and no variates are
// drawn, so it gives the deterministic reference trajectory of a particle.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(gamma, dt float64, drift, _ dynamo.Lookup, _ noise.Stream) (float64, error) {
	k1, err := drift.Eval(gamma)
	if err != nil {
		return gamma, err
	}
	k2, err := drift.Eval(floor(gamma - dt*0.5*k1))
	if err != nil {
		return gamma, err
	}
	k3, err := drift.Eval(floor(gamma - dt*0.5*k2))
	if err != nil {
		return gamma, err
	}
	k4, err := drift.Eval(floor(gamma - dt*k3))
	if err != nil {
		return gamma, err
	}

	dt6 := dt / 6.0
	return floor(gamma - dt6*(k1+2*k2+2*k3+k4)), nil
}

func floor(g float64) float64 {
	if g < MinGamma {
		return MinGamma
	}
	return g
}
