package system

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/hjelmeland/mbdsim/internal/dyn"
)

const quatNormTol = 1e-6

// Validate performs the assembly-time configuration checks: body
// indices, initial quaternion norms, inertia symmetry and positive
// definiteness, and the constraint-count bound. Configuration errors
// are fatal to a run, never retried.
func (s *System) Validate() error {
	if len(s.Bodies) == 0 {
		return dyn.ErrEmptySystem
	}

	for i, r := range s.Constraints {
		if r.A == Ground && r.B == Ground {
			return fmt.Errorf("constraint %d connects ground to ground: %w", i, dyn.ErrBodyIndex)
		}
		if r.A == r.B {
			return fmt.Errorf("constraint %d connects body %d to itself: %w", i, r.A, dyn.ErrBodyIndex)
		}
		for _, idx := range []int{r.A, r.B} {
			if idx != Ground && (idx < 0 || idx >= len(s.Bodies)) {
				return fmt.Errorf("constraint %d references body %d of %d: %w", i, idx, len(s.Bodies), dyn.ErrBodyIndex)
			}
		}
	}

	for i := range s.Bodies {
		b := &s.Bodies[i]
		if math.Abs(b.Orient.Norm()-1) > quatNormTol {
			return fmt.Errorf("body %d: ‖p‖ = %.9f: %w", i, b.Orient.Norm(), dyn.ErrBadQuaternion)
		}
		if b.Mass <= 0 {
			return fmt.Errorf("body %d: mass %g: %w", i, b.Mass, dyn.ErrBadInertia)
		}
		if err := checkInertia(b.Inertia); err != nil {
			return fmt.Errorf("body %d: %w", i, err)
		}
	}

	if m := s.ConstraintRows(); m > s.DOF() {
		return fmt.Errorf("%d constraint rows exceed %d DOF: %w", m, s.DOF(), dyn.ErrOverconstrained)
	}
	return nil
}

// checkInertia requires symmetry and positive definiteness, the latter
// via Sylvester's criterion on the leading principal minors.
func checkInertia(j mgl64.Mat3) error {
	at := j.At
	for r := 0; r < 3; r++ {
		for c := r + 1; c < 3; c++ {
			if math.Abs(at(r, c)-at(c, r)) > 1e-9*(1+math.Abs(at(r, c))) {
				return dyn.ErrBadInertia
			}
		}
	}
	d1 := at(0, 0)
	d2 := at(0, 0)*at(1, 1) - at(0, 1)*at(1, 0)
	d3 := at(0, 0)*(at(1, 1)*at(2, 2)-at(1, 2)*at(2, 1)) -
		at(0, 1)*(at(1, 0)*at(2, 2)-at(1, 2)*at(2, 0)) +
		at(0, 2)*(at(1, 0)*at(2, 1)-at(1, 1)*at(2, 0))
	if d1 <= 0 || d2 <= 0 || d3 <= 0 {
		return dyn.ErrBadInertia
	}
	return nil
}
