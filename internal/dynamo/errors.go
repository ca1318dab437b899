package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrConfiguration indicates an invalid run parameter detected before stepping.
	ErrConfiguration = errors.New("dynamo: invalid configuration")

	// ErrDomain indicates a coefficient lookup outside the tabulated range.
	ErrDomain = errors.New("dynamo: lookup outside coefficient grid")

	// ErrCompleted indicates a simulator that has already finished its run.
	ErrCompleted = errors.New("dynamo: simulator already completed")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")
)

// Configurationf returns an error wrapping ErrConfiguration.
func Configurationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// SimulationError wraps an error with the step and particle that produced it.
type SimulationError struct {
	Step     int
	Particle int
	Gamma    float64
	Wrapped  error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d, particle %d (gamma=%g): %v", e.Step, e.Particle, e.Gamma, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
