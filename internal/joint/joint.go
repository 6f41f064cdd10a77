// Package joint implements the holonomic constraint library: elementary
// constraints between body pairs (coincident point, constant projection,
// constant angle, simple and driving coordinate), their composition into
// joints, and the bridge between twist-space and coordinate-space
// Jacobians.
//
// Every constraint exposes four consistent views of the same residual:
// the position-level value g, the twist-space Jacobian (columns ordered
// ωA, vA, ωB, vB, body-frame angular velocities), the coordinate-space
// Jacobian (columns ṗA, vA, ṗB, vB, obtained through the bridge), and
// the quadratic-velocity term γ appearing on the right-hand side of the
// acceleration-level equation. Elementary constraints compose by row
// concatenation only; composites introduce no cross terms.
package joint

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/hjelmeland/mbdsim/internal/body"
)

// Constraint is one scalar or vector holonomic relation between two
// bodies, or between one body and ground. A nil second body stands for
// the fixed world frame. Geometric data is immutable after construction;
// evaluation never mutates the bodies.
type Constraint interface {
	// Rows is the constraint's DOF count.
	Rows() int
	// Residual is the position-level value g; zero iff satisfied.
	Residual(a, b *body.State, t float64) []float64
	// TwistJacobian is the rows×12 matrix with Aω·[ωA;vA;ωB;vB] = ġ.
	TwistJacobian(a, b *body.State) *mat.Dense
	// CoordJacobian is the rows×14 matrix with Aq·[ṗA;vA;ṗB;vB] = ġ.
	CoordJacobian(a, b *body.State) *mat.Dense
	// Gamma is the acceleration-level right-hand side:
	// Aω·[ω̇A;v̇A;ω̇B;v̇B] = γ. Driving constraints fold f̈(t) in here.
	Gamma(a, b *body.State, t float64) []float64
	// VelRHS is the prescribed velocity ν(t), with Aω·twist = ν on the
	// velocity level. Zero for scleronomic constraints.
	VelRHS(t float64) []float64
}

var ground = body.New()

// resolve substitutes the fixed world frame for a nil body.
func resolve(b *body.State) *body.State {
	if b == nil {
		return &ground
	}
	return b
}

func skew(v mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{0, -v.Z(), v.Y()},
		mgl64.Vec3{v.Z(), 0, -v.X()},
		mgl64.Vec3{-v.Y(), v.X(), 0},
	)
}

// centrip is the world-frame centripetal acceleration R·(ω×(ω×u′)) of a
// body-fixed vector u′ at constant angular velocity.
func centrip(s *body.State, u mgl64.Vec3) mgl64.Vec3 {
	return s.Orient.RotMat().Mul3x1(s.Omega.Cross(s.Omega.Cross(u)))
}

// setBlock writes a 3×3 matrix into a Dense at (row, col).
func setBlock(dst *mat.Dense, row, col int, m mgl64.Mat3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			dst.Set(row+i, col+j, m.At(i, j))
		}
	}
}

// setRowBlock writes a 3-vector into one row of a Dense starting at col.
func setRowBlock(dst *mat.Dense, row, col int, v mgl64.Vec3) {
	for j := 0; j < 3; j++ {
		dst.Set(row, col+j, v[j])
	}
}

// Composite row-concatenates elementary constraints into a joint.
type Composite struct {
	Name  string
	Parts []Constraint
}

func (c *Composite) Rows() int {
	n := 0
	for _, p := range c.Parts {
		n += p.Rows()
	}
	return n
}

func (c *Composite) Residual(a, b *body.State, t float64) []float64 {
	out := make([]float64, 0, c.Rows())
	for _, p := range c.Parts {
		out = append(out, p.Residual(a, b, t)...)
	}
	return out
}

func (c *Composite) Gamma(a, b *body.State, t float64) []float64 {
	out := make([]float64, 0, c.Rows())
	for _, p := range c.Parts {
		out = append(out, p.Gamma(a, b, t)...)
	}
	return out
}

func (c *Composite) VelRHS(t float64) []float64 {
	out := make([]float64, 0, c.Rows())
	for _, p := range c.Parts {
		out = append(out, p.VelRHS(t)...)
	}
	return out
}

func (c *Composite) TwistJacobian(a, b *body.State) *mat.Dense {
	return c.stack(func(p Constraint) *mat.Dense { return p.TwistJacobian(a, b) }, 12)
}

func (c *Composite) CoordJacobian(a, b *body.State) *mat.Dense {
	return c.stack(func(p Constraint) *mat.Dense { return p.CoordJacobian(a, b) }, 14)
}

func (c *Composite) stack(eval func(Constraint) *mat.Dense, cols int) *mat.Dense {
	out := mat.NewDense(c.Rows(), cols, nil)
	row := 0
	for _, p := range c.Parts {
		j := eval(p)
		for i := 0; i < p.Rows(); i++ {
			for k := 0; k < cols; k++ {
				out.Set(row+i, k, j.At(i, k))
			}
		}
		row += p.Rows()
	}
	return out
}

// Spherical is a ball joint: the two body-fixed points coincide.
func Spherical(pointA, pointB mgl64.Vec3) Constraint {
	return &CoincidentPoint{PointA: pointA, PointB: pointB}
}

// Revolute pins the two attachment points together and keeps two
// body-A-fixed normals perpendicular to the body-B-fixed joint axis,
// leaving rotation about the axis free. Five rows; at a generic
// configuration the stacked Jacobian has full rank.
func Revolute(pointA, pointB, axisA, axisB mgl64.Vec3) Constraint {
	n1, n2 := orthonormalPair(axisA)
	return &Composite{
		Name: "revolute",
		Parts: []Constraint{
			&CoincidentPoint{PointA: pointA, PointB: pointB},
			Orthogonal(n1, axisB),
			Orthogonal(n2, axisB),
		},
	}
}

// Universal pins the attachment points and keeps the two cross axes
// perpendicular. Four rows.
func Universal(pointA, pointB, axisA, axisB mgl64.Vec3) Constraint {
	return &Composite{
		Name: "universal",
		Parts: []Constraint{
			&CoincidentPoint{PointA: pointA, PointB: pointB},
			Orthogonal(axisA, axisB),
		},
	}
}

// orthonormalPair returns two unit vectors spanning the orthogonal
// complement of axis.
func orthonormalPair(axis mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	a := axis.Normalize()
	ref := mgl64.Vec3{1, 0, 0}
	if a.Cross(ref).Len() < 1e-6 {
		ref = mgl64.Vec3{0, 1, 0}
	}
	n1 := a.Cross(ref).Normalize()
	n2 := a.Cross(n1)
	return n1, n2
}
