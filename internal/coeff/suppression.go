package coeff

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/integrate/quad"
)

// The emission moments are integrated over nu = u^3 with Gauss-Legendre
// nodes in u, which regularises the nu^(1/3) behaviour at the origin.
const (
	momentNodes = 128
	momentNuMax = 40.0
)

type kernel struct {
	nu, w    []float64
	k53, k23 []float64
	g0, h0   float64
}

var (
	kernelOnce sync.Once
	kern       *kernel
)

func loadKernel() *kernel {
	kernelOnce.Do(func() {
		k := &kernel{
			nu:  make([]float64, momentNodes),
			w:   make([]float64, momentNodes),
			k53: make([]float64, momentNodes),
			k23: make([]float64, momentNodes),
		}
		u := make([]float64, momentNodes)
		quad.Legendre{}.FixedLocations(u, k.w, 0, math.Cbrt(momentNuMax))
		for i := range u {
			k.nu[i] = u[i] * u[i] * u[i]
			k.w[i] *= 3 * u[i] * u[i]
			k.k53[i] = BesselK(5.0/3.0, k.nu[i])
			k.k23[i] = BesselK(2.0/3.0, k.nu[i])
		}
		k.g0 = k.first(0)
		k.h0 = k.second(0)
		kern = k
	})
	return kern
}

// first integrates the energy-loss moment of the synchrotron spectrum.
func (k *kernel) first(chi float64) float64 {
	var sum float64
	for i, nu := range k.nu {
		d := 2 + 3*chi*nu
		d2 := d * d
		sum += k.w[i] * (2*nu*nu*k.k53[i]/d2 + 36*chi*chi*nu*nu*nu*k.k23[i]/(d2*d2))
	}
	return sum
}

// second integrates the mean-square energy-loss moment, i.e. the first
// moment weighted once more by the emitted photon fraction.
func (k *kernel) second(chi float64) float64 {
	var sum float64
	for i, nu := range k.nu {
		d := 2 + 3*chi*nu
		d3 := d * d * d
		nu3 := nu * nu * nu
		sum += k.w[i] * (6*nu3*k.k53[i]/d3 + 108*chi*chi*nu3*nu*k.k23[i]/(d3*d*d))
	}
	return sum
}

// G is the quantum suppression of the radiated power relative to the
// classical Larmor result. G(0) = 1 and G decreases monotonically.
func G(chi float64) float64 {
	if chi <= 0 {
		return 1
	}
	k := loadKernel()
	return k.first(chi) / k.g0
}

// H is the quantum suppression of the energy-loss variance rate relative
// to its classical limit. H(0) = 1.
func H(chi float64) float64 {
	if chi <= 0 {
		return 1
	}
	k := loadKernel()
	return k.second(chi) / k.h0
}

// GFit is the analytic fit to G by Baier and Katkov.
func GFit(chi float64) float64 {
	if chi <= 0 {
		return 1
	}
	return math.Pow(1+4.8*(1+chi)*math.Log(1+1.7*chi)+2.44*chi*chi, -2.0/3.0)
}
