// Package dynamo provides the core primitives of the radiation reaction simulator.
//
// The package defines the types shared by every stage of a run:
//
//   - [Ensemble]: the Lorentz factors of all particles, mutated in place
//   - [Lookup]: a coefficient table queried by Lorentz factor
//   - [Integrator]: a single-particle stochastic stepping rule
//   - [Metric] and [Observer]: per-step hooks used by the simulator
//   - [Result]: the snapshots captured during a run
//
// # Example
//
//	tbl, _ := coeff.BuildTable(coeff.NewQuantum(kalpha), params)
//	s := sim.New(integrators.NewEulerMaruyama(), tbl.Drift, tbl.Diffusion, noise.PerParticle(seed))
//	result, _ := s.Run(ctx, ens, cfg)
//
// # Thread Safety
//
// An Ensemble is owned by exactly one simulator during a run. Lookups are
// immutable and may be shared by any number of goroutines.
package dynamo
