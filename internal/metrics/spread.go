package metrics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/qrr/internal/dynamo"
)

// Spread is the relative width std/mean of the ensemble at the last observed
// step. Stochastic emission broadens the distribution; a deterministic model
// only narrows it.
type Spread struct {
	name  string
	value float64
}

func NewSpread() *Spread {
	return &Spread{name: "spread"}
}

func (s *Spread) Name() string { return s.name }

func (s *Spread) Observe(step int, ens dynamo.Ensemble) {
	if len(ens) < 2 {
		s.value = 0
		return
	}
	mean, std := stat.MeanStdDev(ens, nil)
	if mean == 0 {
		s.value = 0
		return
	}
	s.value = std / mean
}

func (s *Spread) Value() float64 { return s.value }

func (s *Spread) Reset() { s.value = 0 }

// Standard returns the metrics recorded for every run.
func Standard(initial dynamo.Ensemble, gridMax float64) []dynamo.Metric {
	return []dynamo.Metric{
		NewMeanGamma(),
		NewEnergyLoss(initial),
		NewSpread(),
		NewFloorFraction(),
		NewGridOverflow(gridMax),
	}
}
