package coeff

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

const (
	besselNodes  = 160
	besselCutoff = 60.0
)

// BesselK returns the modified Bessel function of the second kind K_nu(x)
// for x > 0, from the representation
//
//	K_nu(x) = ∫_0^∞ exp(-x cosh t) cosh(nu t) dt.
//
// The integrand is truncated where x(cosh t - 1) exceeds besselCutoff.
func BesselK(nu, x float64) float64 {
	if x <= 0 {
		return math.Inf(1)
	}
	tmax := math.Acosh(1 + (besselCutoff+math.Abs(nu)*8)/x)
	f := func(t float64) float64 {
		return math.Exp(-x*(math.Cosh(t)-1)) * math.Cosh(nu*t)
	}
	return math.Exp(-x) * quad.Fixed(f, 0, tmax, besselNodes, quad.Legendre{}, 0)
}
