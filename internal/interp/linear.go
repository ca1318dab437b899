// Package interp provides immutable one-dimensional interpolants over
// uniformly spaced grids.
package interp

import (
	"fmt"
	"math"

	"github.com/san-kum/qrr/internal/dynamo"
)

// Policy decides what happens when a query falls outside the grid.
type Policy int

const (
	// Clamp returns the value at the nearest grid edge.
	Clamp Policy = iota
	// Strict fails with an error wrapping dynamo.ErrDomain.
	Strict
)

func (p Policy) String() string {
	switch p {
	case Clamp:
		return "clamp"
	case Strict:
		return "strict"
	default:
		return "unknown"
	}
}

// ParsePolicy accepts "clamp" (or "") and "strict".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "clamp", "":
		return Clamp, nil
	case "strict":
		return Strict, nil
	default:
		return Clamp, fmt.Errorf("unknown domain policy: %s", s)
	}
}

// Linear is a piecewise-linear interpolant on a uniform grid.
type Linear struct {
	x0, dx float64
	vals   []float64
	policy Policy
}

var _ dynamo.Lookup = (*Linear)(nil)

// NewUniformLinear creates a linear interpolant whose nodes start at x0 and
// are separated by dx, taking the values given by vals. vals is copied.
//
// Lookups are O(1).
func NewUniformLinear(x0, dx float64, vals []float64, policy Policy) (*Linear, error) {
	if len(vals) < 2 {
		return nil, dynamo.Configurationf("interpolant needs at least 2 nodes, got %d", len(vals))
	}
	if !(dx > 0) || math.IsInf(dx, 0) || math.IsNaN(x0) || math.IsInf(x0, 0) {
		return nil, dynamo.Configurationf("invalid grid origin %g or spacing %g", x0, dx)
	}
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, dynamo.Configurationf("non-finite value %g at node %d", v, i)
		}
	}
	c := make([]float64, len(vals))
	copy(c, vals)
	return &Linear{x0: x0, dx: dx, vals: c, policy: policy}, nil
}

// NewLinear creates a linear interpolant over nodes xs, which must be
// uniformly spaced and strictly increasing.
func NewLinear(xs, vals []float64, policy Policy) (*Linear, error) {
	if len(xs) != len(vals) {
		return nil, dynamo.Configurationf("length of nodes (%d) and values (%d) differ", len(xs), len(vals))
	}
	if len(xs) < 2 {
		return nil, dynamo.Configurationf("interpolant needs at least 2 nodes, got %d", len(xs))
	}
	dx := (xs[len(xs)-1] - xs[0]) / float64(len(xs)-1)
	tol := 1e-9 * math.Max(math.Abs(xs[0]), math.Abs(xs[len(xs)-1]))
	for i := 1; i < len(xs); i++ {
		if math.Abs(xs[i]-xs[i-1]-dx) > tol+1e-9*dx {
			return nil, dynamo.Configurationf("nodes are not uniformly spaced at index %d", i)
		}
	}
	return NewUniformLinear(xs[0], dx, vals, policy)
}

func (lin *Linear) Min() float64 { return lin.x0 }

func (lin *Linear) Max() float64 { return lin.x0 + lin.dx*float64(len(lin.vals)-1) }

func (lin *Linear) Len() int { return len(lin.vals) }

func (lin *Linear) Policy() Policy { return lin.policy }

// Node returns the i-th grid point.
func (lin *Linear) Node(i int) float64 { return lin.x0 + lin.dx*float64(i) }

// Values returns a copy of the tabulated values.
func (lin *Linear) Values() []float64 {
	c := make([]float64, len(lin.vals))
	copy(c, lin.vals)
	return c
}

// Eval returns the interpolated value at x.
func (lin *Linear) Eval(x float64) (float64, error) {
	if math.IsNaN(x) {
		return 0, fmt.Errorf("%w: query at NaN", dynamo.ErrDomain)
	}
	n := len(lin.vals)
	if x < lin.x0 || x > lin.Max() {
		if lin.policy == Strict {
			return 0, fmt.Errorf("%w: gamma=%g outside [%g, %g]", dynamo.ErrDomain, x, lin.x0, lin.Max())
		}
		if x < lin.x0 {
			return lin.vals[0], nil
		}
		return lin.vals[n-1], nil
	}

	u := (x - lin.x0) / lin.dx
	i := int(u)
	if i >= n-1 {
		i = n - 2
	}
	f := u - float64(i)
	v1, v2 := lin.vals[i], lin.vals[i+1]
	return v1 + (v2-v1)*f, nil
}

// EvalAll evaluates the interpolant at all the given x values. If out is
// non-nil it must have the length of xs and receives the results.
func (lin *Linear) EvalAll(xs []float64, out []float64) ([]float64, error) {
	if out == nil {
		out = make([]float64, len(xs))
	}
	if len(out) != len(xs) {
		return nil, fmt.Errorf("output length %d does not match input length %d", len(out), len(xs))
	}
	for i, x := range xs {
		v, err := lin.Eval(x)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
