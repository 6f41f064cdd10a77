// Package system holds the multibody aggregate: an ordered arena of
// rigid bodies and the constraints between them. Constraints reference
// bodies by index, never by pointer, so a system can be cloned cheaply
// for snapshotting and differentiation.
package system

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/hjelmeland/mbdsim/internal/body"
	"github.com/hjelmeland/mbdsim/internal/dyn"
	"github.com/hjelmeland/mbdsim/internal/joint"
)

// Ground marks the fixed world frame in a constraint's body slot.
const Ground = -1

// ConstraintRef binds a constraint to its body pair. B may be Ground.
type ConstraintRef struct {
	A, B int
	C    joint.Constraint
}

// PointForce is a constant world-frame force applied at a body-fixed
// point.
type PointForce struct {
	Body  int
	Force mgl64.Vec3 // world frame
	Point mgl64.Vec3 // body frame
}

// Torque is a constant world-frame torque on a body.
type Torque struct {
	Body   int
	Moment mgl64.Vec3 // world frame
}

// System is the simulation aggregate. Body order defines the global
// coordinate and velocity vector layout by concatenation; constraint
// order defines the rows of the global Jacobian.
type System struct {
	Bodies      []body.State
	Constraints []ConstraintRef
	Forces      []PointForce
	Torques     []Torque
	Gravity     mgl64.Vec3
}

func New() *System {
	return &System{Gravity: mgl64.Vec3{0, 0, -9.81}}
}

// AddBody appends a body and returns its index.
func (s *System) AddBody(b body.State) int {
	s.Bodies = append(s.Bodies, b)
	return len(s.Bodies) - 1
}

// Connect adds a constraint between bodies a and b (b may be Ground).
func (s *System) Connect(a, b int, c joint.Constraint) {
	s.Constraints = append(s.Constraints, ConstraintRef{A: a, B: b, C: c})
}

func (s *System) Clone() *System {
	c := *s
	c.Bodies = append([]body.State(nil), s.Bodies...)
	c.Constraints = append([]ConstraintRef(nil), s.Constraints...)
	c.Forces = append([]PointForce(nil), s.Forces...)
	c.Torques = append([]Torque(nil), s.Torques...)
	return &c
}

// ConstraintRows is the total number of constraint equations.
func (s *System) ConstraintRows() int {
	n := 0
	for _, r := range s.Constraints {
		n += r.C.Rows()
	}
	return n
}

// DOF is the velocity-level degree-of-freedom count, six per body.
func (s *System) DOF() int { return 6 * len(s.Bodies) }

// pair resolves a constraint's bodies; the ground slot resolves to nil
// and the constraint substitutes the fixed frame.
func (s *System) pair(r ConstraintRef) (*body.State, *body.State) {
	var a, b *body.State
	if r.A != Ground {
		a = &s.Bodies[r.A]
	}
	if r.B != Ground {
		b = &s.Bodies[r.B]
	}
	return a, b
}

// Residual stacks all constraint residuals at time t.
func (s *System) Residual(t float64) []float64 {
	out := make([]float64, 0, s.ConstraintRows())
	for _, r := range s.Constraints {
		a, b := s.pair(r)
		out = append(out, r.C.Residual(a, b, t)...)
	}
	return out
}

// Jacobian assembles the global twist-space constraint Jacobian,
// rows = ConstraintRows, cols = DOF, by scattering each constraint's
// 12-column pair Jacobian into the body columns.
func (s *System) Jacobian() *mat.Dense {
	m := s.ConstraintRows()
	cq := mat.NewDense(max(m, 1), s.DOF(), nil)
	row := 0
	for _, r := range s.Constraints {
		a, b := s.pair(r)
		j := r.C.TwistJacobian(a, b)
		for i := 0; i < r.C.Rows(); i++ {
			if r.A != Ground {
				for k := 0; k < 6; k++ {
					cq.Set(row+i, 6*r.A+k, j.At(i, k))
				}
			}
			if r.B != Ground {
				for k := 0; k < 6; k++ {
					cq.Set(row+i, 6*r.B+k, j.At(i, 6+k))
				}
			}
		}
		row += r.C.Rows()
	}
	return cq
}

// Gamma stacks the acceleration-level right-hand sides.
func (s *System) Gamma(t float64) []float64 {
	out := make([]float64, 0, s.ConstraintRows())
	for _, r := range s.Constraints {
		a, b := s.pair(r)
		out = append(out, r.C.Gamma(a, b, t)...)
	}
	return out
}

// VelRHS stacks the prescribed velocities ν(t).
func (s *System) VelRHS(t float64) []float64 {
	out := make([]float64, 0, s.ConstraintRows())
	for _, r := range s.Constraints {
		out = append(out, r.C.VelRHS(t)...)
	}
	return out
}

// Twist returns the global velocity vector [ω₀;v₀;ω₁;v₁;...].
func (s *System) Twist() []float64 {
	out := make([]float64, 0, s.DOF())
	for i := range s.Bodies {
		tw := s.Bodies[i].Twist()
		out = append(out, tw[:]...)
	}
	return out
}

// RankCq reports the numerical rank of the constraint Jacobian, a
// diagnostic for redundant constraints and joint singularities.
func (s *System) RankCq() int {
	if s.ConstraintRows() == 0 {
		return 0
	}
	var svd mat.SVD
	if !svd.Factorize(s.Jacobian(), mat.SVDNone) {
		return -1
	}
	vals := svd.Values(nil)
	rank := 0
	for _, v := range vals {
		if v > 1e-10*vals[0] {
			rank++
		}
	}
	return rank
}

// VerifyJacobians cross-checks every constraint's closed forms against
// the numeric references at the current state.
func (s *System) VerifyJacobians(t, tol float64) error {
	for i, r := range s.Constraints {
		a, b := s.pair(r)
		if err := joint.Verify(r.C, a, b, t, tol); err != nil {
			return fmt.Errorf("constraint %d: %w", i, err)
		}
	}
	return nil
}

// PackState flattens the system into a dyn.State, BodyStride slots per
// body.
func (s *System) PackState() dyn.State {
	x := make(dyn.State, 0, len(s.Bodies)*dyn.BodyStride)
	for i := range s.Bodies {
		b := &s.Bodies[i]
		x = append(x, b.Orient[:]...)
		x = append(x, b.Pos[:]...)
		x = append(x, b.Omega[:]...)
		x = append(x, b.Vel[:]...)
	}
	return x
}

// ApplyState writes a flat state vector back into the bodies.
func (s *System) ApplyState(x dyn.State) error {
	if len(x) != len(s.Bodies)*dyn.BodyStride {
		return dyn.ErrDimensionMismatch
	}
	for i := range s.Bodies {
		b := &s.Bodies[i]
		o := i * dyn.BodyStride
		copy(b.Orient[:], x[o:o+4])
		copy(b.Pos[:], x[o+4:o+7])
		copy(b.Omega[:], x[o+7:o+10])
		copy(b.Vel[:], x[o+10:o+13])
	}
	return nil
}
