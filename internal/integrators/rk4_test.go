package integrators

import (
	"math"
	"testing"
)

type linearLookup float64

func (k linearLookup) Eval(g float64) (float64, error) { return float64(k) * g, nil }

func TestRK4Accuracy(t *testing.T) {
	integ := NewRK4()

	k := 0.5
	gamma := 1000.0
	dt := 0.01
	steps := 100

	var err error
	for i := 0; i < steps; i++ {
		gamma, err = integ.Step(gamma, dt, linearLookup(k), nil, nil)
		if err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
	}

	expected := 1000 * math.Exp(-k*float64(steps)*dt)
	if math.Abs(gamma-expected) > 1e-6 {
		t.Errorf("gamma error too large: got %.9f, expected %.9f", gamma, expected)
	}
}

func TestRK4MatchesEulerMaruyamaWithoutNoise(t *testing.T) {
	rk := NewRK4()
	em := NewEulerMaruyama()

	g1, err := rk.Step(1800, 0.005, constLookup(10), constLookup(4), nil)
	if err != nil {
		t.Fatal(err)
	}
	g2, err := em.Step(1800, 0.005, constLookup(10), constLookup(0), &countingStream{})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(g1-g2) > 1e-9 {
		t.Errorf("constant drift: rk4 %.12f, euler-maruyama %.12f", g1, g2)
	}
}

func TestRK4Floor(t *testing.T) {
	got, err := NewRK4().Step(1.2, 1, constLookup(5), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != MinGamma {
		t.Errorf("expected floor %g, got %g", MinGamma, got)
	}
}

func TestRK4DomainError(t *testing.T) {
	got, err := NewRK4().Step(50, 0.1, failLookup{}, nil, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if got != 50 {
		t.Errorf("gamma should be returned unchanged, got %g", got)
	}
}
