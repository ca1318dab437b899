package metrics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/qrr/internal/dynamo"
)

// MeanGamma is the mean Lorentz factor, i.e. the mean electron energy in
// units of mc², at the last observed step.
type MeanGamma struct {
	name    string
	last    float64
	samples int
}

func NewMeanGamma() *MeanGamma {
	return &MeanGamma{name: "mean_gamma"}
}

func (m *MeanGamma) Name() string { return m.name }

func (m *MeanGamma) Observe(step int, ens dynamo.Ensemble) {
	if len(ens) == 0 {
		return
	}
	m.last = stat.Mean(ens, nil)
	m.samples++
}

func (m *MeanGamma) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.last
}

func (m *MeanGamma) Reset() {
	m.last = 0
	m.samples = 0
}

// EnergyLoss is the fraction of the initial mean energy radiated away by the
// last observed step.
type EnergyLoss struct {
	name    string
	initial float64
	current float64
	samples int
}

func NewEnergyLoss(initial dynamo.Ensemble) *EnergyLoss {
	e := &EnergyLoss{name: "energy_loss"}
	if len(initial) > 0 {
		e.initial = stat.Mean(initial, nil)
	}
	return e
}

func (e *EnergyLoss) Name() string { return e.name }

func (e *EnergyLoss) Observe(step int, ens dynamo.Ensemble) {
	if len(ens) == 0 {
		return
	}
	e.current = stat.Mean(ens, nil)
	e.samples++
}

func (e *EnergyLoss) Value() float64 {
	if e.samples == 0 || e.initial == 0 {
		return 0
	}
	return 1 - e.current/e.initial
}

func (e *EnergyLoss) Reset() {
	e.current = 0
	e.samples = 0
}
