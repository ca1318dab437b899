package ensemble

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/qrr/internal/dynamo"
)

// Hist is a uniformly binned, normalised distribution of Lorentz factors.
type Hist struct {
	Edges   []float64 `json:"edges"`
	Centers []float64 `json:"centers"`
	Counts  []float64 `json:"counts"`
	// Density integrates to the fraction of particles inside [Lo, Hi].
	Density []float64 `json:"density"`
	Lo      float64   `json:"lo"`
	Hi      float64   `json:"hi"`
}

// Histogram bins ens into bins uniform bins over [lo, hi]. Values outside
// the range are ignored; a value equal to hi lands in the last bin.
func Histogram(ens dynamo.Ensemble, bins int, lo, hi float64) (*Hist, error) {
	if bins < 1 {
		return nil, dynamo.Configurationf("histogram needs at least one bin, got %d", bins)
	}
	if !(hi > lo) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil, dynamo.Configurationf("invalid histogram range [%g, %g]", lo, hi)
	}

	edges := make([]float64, bins+1)
	floats.Span(edges, lo, hi)
	// stat.Histogram treats the last divider as exclusive.
	dividers := make([]float64, len(edges))
	copy(dividers, edges)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	inside := make([]float64, 0, len(ens))
	for _, g := range ens {
		if g >= lo && g <= hi {
			inside = append(inside, g)
		}
	}
	sort.Float64s(inside)

	counts := stat.Histogram(nil, dividers, inside, nil)

	h := &Hist{
		Edges:   edges,
		Centers: make([]float64, bins),
		Counts:  counts,
		Density: make([]float64, bins),
		Lo:      lo,
		Hi:      hi,
	}
	width := (hi - lo) / float64(bins)
	for i := range h.Centers {
		h.Centers[i] = edges[i] + width/2
	}
	if len(ens) > 0 {
		norm := 1 / (float64(len(ens)) * width)
		for i, c := range counts {
			h.Density[i] = c * norm
		}
	}
	return h, nil
}

// Range returns bounds that cover every snapshot, padded by a bin's worth
// on each side and never below 1.
func Range(bins int, snaps ...dynamo.Ensemble) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range snaps {
		if len(s) == 0 {
			continue
		}
		lo = math.Min(lo, floats.Min(s))
		hi = math.Max(hi, floats.Max(s))
	}
	if math.IsInf(lo, 1) {
		return 1, 2
	}
	if hi <= lo {
		hi = lo + 1
	}
	if bins > 0 {
		pad := (hi - lo) / float64(bins)
		lo -= pad
		hi += pad
	}
	return math.Max(1, lo), hi
}
