package sim_test

import (
	"context"
	"errors"
	"io"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/qrr/internal/coeff"
	"github.com/san-kum/qrr/internal/dynamo"
	"github.com/san-kum/qrr/internal/integrators"
	"github.com/san-kum/qrr/internal/interp"
	"github.com/san-kum/qrr/internal/noise"
	"github.com/san-kum/qrr/internal/sim"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func constantTable(s, r, gammaMax float64) *coeff.Table {
	tbl, err := coeff.BuildTable(coeff.Constant{S: s, R: r}, coeff.Params{
		Chi0: 1, Gamma0: 1800, GammaMax: gammaMax, Size: coeff.DefaultGridSize,
	})
	Expect(err).NotTo(HaveOccurred())
	return tbl
}

func quantumTable(gammaMax float64) *coeff.Table {
	tbl, err := coeff.BuildTable(coeff.NewQuantum(50), coeff.Params{
		Chi0: 1, Gamma0: 1800, GammaMax: gammaMax, Size: coeff.DefaultGridSize,
	})
	Expect(err).NotTo(HaveOccurred())
	return tbl
}

func newSim(tbl *coeff.Table, src noise.Source) *sim.Simulator {
	return sim.New(integrators.NewEulerMaruyama(), tbl.Drift, tbl.Diffusion, src, sim.WithLogger(quiet))
}

func uniform(n int, g float64) dynamo.Ensemble {
	e := make(dynamo.Ensemble, n)
	for i := range e {
		e[i] = g
	}
	return e
}

func spread(n int, lo, hi float64) dynamo.Ensemble {
	e := make(dynamo.Ensemble, n)
	for i := range e {
		e[i] = lo + (hi-lo)*float64(i)/float64(n)
	}
	return e
}

type countingObserver struct{ calls int }

func (c *countingObserver) OnStep(int, dynamo.Ensemble) { c.calls++ }

type meanMetric struct {
	sum float64
	n   int
}

func (m *meanMetric) Name() string { return "test_mean" }
func (m *meanMetric) Observe(_ int, ens dynamo.Ensemble) {
	for _, g := range ens {
		m.sum += g
		m.n++
	}
}
func (m *meanMetric) Value() float64 { return m.sum / float64(m.n) }
func (m *meanMetric) Reset()         { m.sum, m.n = 0, 0 }

var _ = Describe("Simulator", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("deterministic stepping", func() {
		It("applies the drift to every particle", func() {
			s := newSim(constantTable(10, 0, 1800), noise.Constant(0))
			res, err := s.Run(ctx, uniform(3, 1800), dynamo.Config{Steps: 2, Dt: 0.005, Workers: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Final.Gammas).To(HaveLen(3))
			for _, g := range res.Final.Gammas {
				Expect(g).To(BeNumerically("~", 1799.9, 1e-9))
			}
			Expect(res.StepsTaken).To(Equal(2))
		})

		It("holds particles at the unit floor", func() {
			s := newSim(constantTable(10, 0, 10), noise.Constant(0))
			res, err := s.Run(ctx, dynamo.Ensemble{1.002, 5}, dynamo.Config{Steps: 4, Dt: 0.005})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Mid.Gammas[0]).To(Equal(1.0))
			Expect(res.Final.Gammas[0]).To(Equal(1.0))
			Expect(res.Final.Gammas[1]).To(BeNumerically("~", 4.8, 1e-9))
		})

		It("never lets a stochastic run fall below one", func() {
			s := newSim(quantumTable(50), noise.PerParticle(3))
			res, err := s.Run(ctx, spread(500, 1, 50), dynamo.Config{Steps: 200, Dt: 0.05})
			Expect(err).NotTo(HaveOccurred())
			for _, snap := range res.Snapshots() {
				Expect(snap.Gammas.IsValid()).To(BeTrue())
			}
		})
	})

	Describe("snapshots", func() {
		It("records the initial, midpoint and final ensembles", func() {
			s := newSim(quantumTable(1900), noise.PerParticle(1))
			initial := spread(64, 1700, 1900)
			res, err := s.Run(ctx, initial, dynamo.Config{Steps: 1000, Dt: 0.005})
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Initial.Step).To(Equal(0))
			Expect(res.Initial.Time).To(Equal(0.0))
			Expect(res.Initial.Gammas).To(Equal(initial))

			Expect(res.Mid.Step).To(Equal(500))
			Expect(res.Mid.Time).To(BeNumerically("~", 501*0.005, 1e-12))

			Expect(res.Final.Step).To(Equal(1000))
			Expect(res.Final.Time).To(BeNumerically("~", 5.0, 1e-12))
			Expect(res.Mid.Gammas).NotTo(Equal(res.Initial.Gammas))
			Expect(res.Final.Gammas).NotTo(Equal(res.Mid.Gammas))
		})

		It("does not modify the caller's ensemble", func() {
			initial := uniform(8, 1800)
			before := initial.Clone()
			s := newSim(constantTable(10, 4, 1800), noise.PerParticle(9))
			res, err := s.Run(ctx, initial, dynamo.Config{Steps: 10, Dt: 0.005})
			Expect(err).NotTo(HaveOccurred())
			Expect(initial).To(Equal(before))

			res.Initial.Gammas[0] = 42
			Expect(res.Mid.Gammas[0]).NotTo(Equal(42.0))
		})

		It("captures requested extra steps in time order", func() {
			s := newSim(constantTable(1, 0, 100), noise.Constant(0))
			res, err := s.Run(ctx, uniform(2, 50), dynamo.Config{Steps: 10, Dt: 0.1, SnapshotSteps: []int{7, 2, 5, 99, -1}})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Extra).To(HaveLen(2))

			steps := make([]int, 0)
			for _, snap := range res.Snapshots() {
				steps = append(steps, snap.Step)
			}
			Expect(steps).To(Equal([]int{0, 2, 5, 7, 10}))
			Expect(res.Extra[0].Gammas[0]).To(BeNumerically("~", 49.7, 1e-9))
		})

		It("completes an empty ensemble with empty snapshots", func() {
			s := newSim(constantTable(10, 1, 10), noise.PerParticle(0))
			res, err := s.Run(ctx, dynamo.Ensemble{}, dynamo.Config{Steps: 5, Dt: 0.01, Workers: 4})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Initial.Gammas).To(BeEmpty())
			Expect(res.Mid.Gammas).To(BeEmpty())
			Expect(res.Final.Gammas).To(BeEmpty())
			Expect(res.StepsTaken).To(Equal(5))
			Expect(s.Phase()).To(Equal(dynamo.Completed))
		})
	})

	Describe("noise", func() {
		It("is reproducible for a fixed seed", func() {
			cfg := dynamo.Config{Steps: 100, Dt: 0.005}
			a, err := newSim(quantumTable(1900), noise.PerParticle(7)).Run(ctx, uniform(32, 1800), cfg)
			Expect(err).NotTo(HaveOccurred())
			b, err := newSim(quantumTable(1900), noise.PerParticle(7)).Run(ctx, uniform(32, 1800), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Final.Gammas).To(Equal(b.Final.Gammas))

			c, err := newSim(quantumTable(1900), noise.PerParticle(8)).Run(ctx, uniform(32, 1800), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Final.Gammas).NotTo(Equal(a.Final.Gammas))
		})

		It("gives particles independent streams", func() {
			cfg := dynamo.Config{Steps: 20, Dt: 0.005}
			res, err := newSim(constantTable(0, 100, 1900), noise.PerParticle(11)).Run(ctx, uniform(2, 1800), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Final.Gammas[0]).NotTo(Equal(res.Final.Gammas[1]))

			res, err = newSim(constantTable(0, 100, 1900), noise.Replay([]float64{0.3, -1.2, 0.7})).Run(ctx, uniform(2, 1800), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Final.Gammas[0]).To(Equal(res.Final.Gammas[1]))
		})

		It("produces identical results for any worker count", func() {
			initial := spread(3000, 1500, 2100)
			serial, err := newSim(quantumTable(2100), noise.PerParticle(21)).Run(ctx, initial, dynamo.Config{Steps: 50, Dt: 0.005, Workers: 1})
			Expect(err).NotTo(HaveOccurred())
			parallel, err := newSim(quantumTable(2100), noise.PerParticle(21)).Run(ctx, initial, dynamo.Config{Steps: 50, Dt: 0.005, Workers: 4})
			Expect(err).NotTo(HaveOccurred())
			Expect(parallel.Final.Gammas).To(Equal(serial.Final.Gammas))
			Expect(parallel.Mid.Gammas).To(Equal(serial.Mid.Gammas))
		})

		It("steps a shared stream serially even when workers are requested", func() {
			initial := spread(1000, 1700, 1900)
			one, err := newSim(quantumTable(1900), noise.Shared(5)).Run(ctx, initial, dynamo.Config{Steps: 10, Dt: 0.005, Workers: 1})
			Expect(err).NotTo(HaveOccurred())
			many, err := newSim(quantumTable(1900), noise.Shared(5)).Run(ctx, initial, dynamo.Config{Steps: 10, Dt: 0.005, Workers: 8})
			Expect(err).NotTo(HaveOccurred())
			Expect(many.Final.Gammas).To(Equal(one.Final.Gammas))
		})
	})

	Describe("lifecycle", func() {
		It("moves from initialized to completed and refuses a second run", func() {
			s := newSim(constantTable(1, 0, 10), noise.Constant(0))
			Expect(s.Phase()).To(Equal(dynamo.Initialized))
			_, err := s.Run(ctx, uniform(1, 5), dynamo.Config{Steps: 2, Dt: 0.1})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Phase()).To(Equal(dynamo.Completed))

			_, err = s.Run(ctx, uniform(1, 5), dynamo.Config{Steps: 2, Dt: 0.1})
			Expect(err).To(MatchError(dynamo.ErrCompleted))
		})

		DescribeTable("rejects invalid configuration without starting",
			func(initial dynamo.Ensemble, cfg dynamo.Config) {
				s := newSim(constantTable(1, 0, 10), noise.Constant(0))
				res, err := s.Run(ctx, initial, cfg)
				Expect(res).To(BeNil())
				Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
				Expect(s.Phase()).To(Equal(dynamo.Initialized))
			},
			Entry("zero steps", uniform(2, 5), dynamo.Config{Steps: 0, Dt: 0.1}),
			Entry("negative steps", uniform(2, 5), dynamo.Config{Steps: -3, Dt: 0.1}),
			Entry("zero dt", uniform(2, 5), dynamo.Config{Steps: 3, Dt: 0}),
			Entry("negative dt", uniform(2, 5), dynamo.Config{Steps: 3, Dt: -0.1}),
			Entry("negative workers", uniform(2, 5), dynamo.Config{Steps: 3, Dt: 0.1, Workers: -1}),
			Entry("sub-unity gamma", dynamo.Ensemble{5, 0.5}, dynamo.Config{Steps: 3, Dt: 0.1}),
		)

		It("reports the failing particle when a lookup leaves the grid", func() {
			drift, err := interp.NewUniformLinear(1, 1, []float64{-100, -100, -100, -100, -100, -100, -100, -100, -100, -100}, interp.Strict)
			Expect(err).NotTo(HaveOccurred())
			diffusion, err := interp.NewUniformLinear(1, 1, make([]float64, 10), interp.Strict)
			Expect(err).NotTo(HaveOccurred())

			s := sim.New(integrators.NewEulerMaruyama(), drift, diffusion, noise.Constant(0), sim.WithLogger(quiet))
			res, err := s.Run(ctx, dynamo.Ensemble{2, 9.9, 9.95}, dynamo.Config{Steps: 5, Dt: 0.005})
			Expect(res).To(BeNil())
			Expect(errors.Is(err, dynamo.ErrDomain)).To(BeTrue())

			var se *dynamo.SimulationError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Step).To(Equal(1))
			Expect(se.Particle).To(Equal(1))
			Expect(se.Gamma).To(BeNumerically("~", 10.4, 1e-9))
			Expect(s.Phase()).To(Equal(dynamo.Completed))
		})

		It("stops when the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			s := newSim(constantTable(1, 0, 10), noise.Constant(0))
			res, err := s.Run(cctx, uniform(3, 5), dynamo.Config{Steps: 10, Dt: 0.1})
			Expect(res).To(BeNil())
			Expect(errors.Is(err, dynamo.ErrContextCanceled)).To(BeTrue())
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	Describe("metrics and observers", func() {
		It("observes every step and reports final metric values", func() {
			s := newSim(constantTable(10, 0, 1800), noise.Constant(0))
			obs := &countingObserver{}
			m := &meanMetric{}
			s.AddObserver(obs)
			s.AddMetric(m)

			res, err := s.Run(ctx, uniform(4, 1800), dynamo.Config{Steps: 2, Dt: 0.005})
			Expect(err).NotTo(HaveOccurred())
			Expect(obs.calls).To(Equal(2))
			Expect(res.Metrics).To(HaveKeyWithValue("test_mean", BeNumerically("~", 1799.925, 1e-9)))
		})
	})
})
