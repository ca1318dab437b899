package metrics

import (
	"github.com/san-kum/qrr/internal/dynamo"
)

// FloorFraction is the fraction of particles sitting at gamma = 1 at the
// last observed step.
type FloorFraction struct {
	name     string
	fraction float64
}

func NewFloorFraction() *FloorFraction {
	return &FloorFraction{name: "floor_fraction"}
}

func (f *FloorFraction) Name() string { return f.name }

func (f *FloorFraction) Observe(step int, ens dynamo.Ensemble) {
	if len(ens) == 0 {
		return
	}
	n := 0
	for _, g := range ens {
		if g <= 1 {
			n++
		}
	}
	f.fraction = float64(n) / float64(len(ens))
}

func (f *FloorFraction) Value() float64 { return f.fraction }

func (f *FloorFraction) Reset() { f.fraction = 0 }

// GridOverflow counts the particles that were ever observed above the top of
// the coefficient grid. Under the clamp policy their coefficients are frozen
// at the edge value, so a non-zero count means the grid was too small.
type GridOverflow struct {
	name  string
	max   float64
	seen  map[int]struct{}
	first int
}

func NewGridOverflow(gridMax float64) *GridOverflow {
	return &GridOverflow{name: "grid_overflow", max: gridMax, seen: make(map[int]struct{}), first: -1}
}

func (g *GridOverflow) Name() string { return g.name }

func (g *GridOverflow) Observe(step int, ens dynamo.Ensemble) {
	for i, v := range ens {
		if v > g.max {
			if g.first < 0 {
				g.first = step
			}
			g.seen[i] = struct{}{}
		}
	}
}

func (g *GridOverflow) Value() float64 { return float64(len(g.seen)) }

// FirstStep returns the first step at which a particle left the grid, or -1.
func (g *GridOverflow) FirstStep() int { return g.first }

func (g *GridOverflow) Reset() {
	g.seen = make(map[int]struct{})
	g.first = -1
}
