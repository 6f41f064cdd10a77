// Package metrics implements per-step diagnostics for multibody runs.
// Drift quantities (constraint residual, quaternion norm, energy) are
// expected, continuously-corrected conditions, not errors; these metrics
// make them observable.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/hjelmeland/mbdsim/internal/dyn"
	"github.com/hjelmeland/mbdsim/internal/system"
)

// ResidualDrift tracks the maximum constraint residual norm ‖g‖ seen
// over a run.
type ResidualDrift struct {
	scratch *system.System
	max     float64
}

func NewResidualDrift(sys *system.System) *ResidualDrift {
	return &ResidualDrift{scratch: sys.Clone()}
}

func (r *ResidualDrift) Name() string { return "residual_max" }

func (r *ResidualDrift) Observe(x dyn.State, t float64) {
	if r.scratch.ApplyState(x) != nil {
		return
	}
	g := r.scratch.Residual(t)
	if len(g) == 0 {
		return
	}
	r.max = math.Max(r.max, floats.Norm(g, 2))
}

func (r *ResidualDrift) Value() float64 { return r.max }
func (r *ResidualDrift) Reset()         { r.max = 0 }

// QuatNormDrift tracks the worst deviation of any body quaternion from
// unit norm, measured before renormalization would correct it.
type QuatNormDrift struct {
	max float64
}

func NewQuatNormDrift() *QuatNormDrift { return &QuatNormDrift{} }

func (q *QuatNormDrift) Name() string { return "quat_norm_drift" }

func (q *QuatNormDrift) Observe(x dyn.State, t float64) {
	for o := 0; o+dyn.BodyStride <= len(x); o += dyn.BodyStride {
		n := math.Sqrt(x[o]*x[o] + x[o+1]*x[o+1] + x[o+2]*x[o+2] + x[o+3]*x[o+3])
		q.max = math.Max(q.max, math.Abs(n-1))
	}
}

func (q *QuatNormDrift) Value() float64 { return q.max }
func (q *QuatNormDrift) Reset()         { q.max = 0 }

// EnergyDrift tracks relative mechanical energy drift, kinetic plus
// gravitational potential. Meaningful for conservative scenarios only.
type EnergyDrift struct {
	scratch *system.System
	initial float64
	max     float64
	samples int
}

func NewEnergyDrift(sys *system.System) *EnergyDrift {
	return &EnergyDrift{scratch: sys.Clone()}
}

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) Observe(x dyn.State, t float64) {
	if e.scratch.ApplyState(x) != nil {
		return
	}
	energy := Energy(e.scratch)

	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.max = math.Max(e.max, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.max }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.max = 0
	e.samples = 0
}

// Energy is the total mechanical energy of the system's current state.
func Energy(s *system.System) float64 {
	total := 0.0
	for i := range s.Bodies {
		b := &s.Bodies[i]
		ke := 0.5*b.Omega.Dot(b.Inertia.Mul3x1(b.Omega)) + 0.5*b.Mass*b.Vel.Dot(b.Vel)
		pe := -b.Mass * s.Gravity.Dot(b.Pos)
		total += ke + pe
	}
	return total
}
