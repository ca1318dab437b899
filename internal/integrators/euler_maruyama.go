package integrators

import (
	"math"

	"github.com/san-kum/qrr/internal/dynamo"
	"github.com/san-kum/qrr/internal/noise"
)

// MinGamma is the physical floor of the Lorentz factor.
const MinGamma = 1.0

// EulerMaruyama integrates dγ = -S(γ) dt + sqrt(R(γ)) dW.
type EulerMaruyama struct{}

func NewEulerMaruyama() *EulerMaruyama {
	return &EulerMaruyama{}
}

// Step advances gamma by dt, drawing exactly one variate from z once both
// coefficient lookups have succeeded. A negative diffusion rate is treated
// as zero and the result never drops below MinGamma.
func (e *EulerMaruyama) Step(gamma, dt float64, drift, diffusion dynamo.Lookup, z noise.Stream) (float64, error) {
	s, err := drift.Eval(gamma)
	if err != nil {
		return gamma, err
	}
	r, err := diffusion.Eval(gamma)
	if err != nil {
		return gamma, err
	}
	if r < 0 {
		r = 0
	}

	dW := math.Sqrt(dt) * z.NormFloat64()
	next := gamma - s*dt + math.Sqrt(r)*dW
	if next < MinGamma {
		next = MinGamma
	}
	return next, nil
}
