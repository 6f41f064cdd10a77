package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/hjelmeland/mbdsim/internal/dyn"
	"github.com/hjelmeland/mbdsim/internal/eom"
	"github.com/hjelmeland/mbdsim/internal/quat"
	"github.com/hjelmeland/mbdsim/internal/system"
)

// Dynamics adapts a multibody system plus assembler to the first-order
// dyn.System interface: each Derive call writes the flat state into a
// scratch clone, solves the constrained acceleration problem, and
// returns [ṗ; ṙ; ω̇; v̇] per body.
type Dynamics struct {
	sys     *system.System
	asm     *eom.Assembler
	scratch *system.System

	lambda   []float64 // multipliers from the first solve of the step
	captured bool
}

func NewDynamics(sys *system.System, asm *eom.Assembler) *Dynamics {
	return &Dynamics{sys: sys, asm: asm, scratch: sys.Clone()}
}

func (d *Dynamics) StateDim() int {
	return len(d.sys.Bodies) * dyn.BodyStride
}

// BeginStep marks the start of an integration step, so the next Derive
// call (evaluated at the pre-step state on every scheme used here)
// captures the step's Lagrange multipliers for diagnostics.
func (d *Dynamics) BeginStep() {
	d.captured = false
}

// Lambda returns the multipliers captured at the start of the current
// step. Valid after the first Derive call of the step.
func (d *Dynamics) Lambda() []float64 {
	return d.lambda
}

func (d *Dynamics) Derive(x dyn.State, t float64) (dyn.State, error) {
	if err := d.scratch.ApplyState(x); err != nil {
		return nil, err
	}
	sol, err := d.asm.Solve(d.scratch, t)
	if err != nil {
		return nil, err
	}
	if !d.captured {
		d.lambda = append(d.lambda[:0], sol.Lambda...)
		d.captured = true
	}

	dx := make(dyn.State, len(x))
	for i := range d.scratch.Bodies {
		b := &d.scratch.Bodies[i]
		o := i * dyn.BodyStride
		pd := quat.RateFromBody(b.Orient, b.Omega)
		copy(dx[o:o+4], pd[:])
		copy(dx[o+4:o+7], b.Vel[:])
		copy(dx[o+7:o+13], sol.Accel[6*i:6*i+6])
	}
	return dx, nil
}

// Residual evaluates the stacked constraint residual at a flat state.
func (d *Dynamics) Residual(x dyn.State, t float64) []float64 {
	if err := d.scratch.ApplyState(x); err != nil {
		return nil
	}
	return d.scratch.Residual(t)
}

// Renormalize restores each body quaternion to unit norm in place.
func Renormalize(x dyn.State) {
	for o := 0; o+dyn.BodyStride <= len(x); o += dyn.BodyStride {
		p := quat.Quaternion{x[o], x[o+1], x[o+2], x[o+3]}.Normalize()
		copy(x[o:o+4], p[:])
	}
}

// BodyPos reads body i's world position out of a flat state.
func BodyPos(x dyn.State, i int) mgl64.Vec3 {
	o := i * dyn.BodyStride
	return mgl64.Vec3{x[o+4], x[o+5], x[o+6]}
}
