package ensemble

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/qrr/internal/dynamo"
)

// Summary describes one snapshot of the ensemble.
type Summary struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	// Floor is the number of particles sitting at gamma = 1.
	Floor int `json:"floor"`
}

// Stats summarises ens. An empty ensemble yields the zero Summary.
func Stats(ens dynamo.Ensemble) Summary {
	if len(ens) == 0 {
		return Summary{}
	}
	sorted := make([]float64, len(ens))
	copy(sorted, ens)
	sort.Float64s(sorted)

	s := Summary{
		N:      len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
	if len(sorted) > 1 {
		s.Std = stat.StdDev(sorted, nil)
	}
	for _, g := range sorted {
		if g > 1 {
			break
		}
		s.Floor++
	}
	return s
}
