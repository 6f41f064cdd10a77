package dyn

import (
	"errors"
	"fmt"
)

// Domain errors for model assembly and per-step solves.
var (
	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dyn: invalid state (NaN or Inf detected)")

	// ErrBadQuaternion indicates an initial orientation too far from unit norm.
	ErrBadQuaternion = errors.New("dyn: orientation quaternion not unit norm")

	// ErrBadInertia indicates a non-symmetric or non-positive-definite inertia tensor.
	ErrBadInertia = errors.New("dyn: inertia tensor not symmetric positive-definite")

	// ErrOverconstrained indicates more constraint rows than velocity DOF.
	ErrOverconstrained = errors.New("dyn: system over-constrained")

	// ErrSingular indicates a singular or numerically rank-deficient
	// equation-of-motion block system (typically redundant constraints).
	ErrSingular = errors.New("dyn: singular constrained system")

	// ErrBodyIndex indicates a constraint referencing a body outside the system.
	ErrBodyIndex = errors.New("dyn: constraint references unknown body")

	// ErrEmptySystem indicates a system with no bodies.
	ErrEmptySystem = errors.New("dyn: system has no bodies")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("dyn: dimension mismatch between state and system")
)

// SimulationError wraps an error with the step at which it occurred.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
