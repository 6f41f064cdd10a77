package joint

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/hjelmeland/mbdsim/internal/body"
)

// ConstantAngle holds the angle between a body-A-fixed direction and a
// body-B-fixed direction constant (the type-1/3 perpendicularity
// condition when the angle is 90°). One row:
//
//	g = eA·eB − cos φ
//
// The Jacobian row becomes non-informative when the two directions are
// parallel at the evaluated configuration; that rank deficiency is not
// masked here and surfaces at the equation-of-motion solve.
type ConstantAngle struct {
	AxisA    mgl64.Vec3 // eA′, unit, body A frame
	AxisB    mgl64.Vec3 // eB′, unit, body B frame
	CosAngle float64
}

// Orthogonal is the pure perpendicularity case, φ = 90°.
func Orthogonal(axisA, axisB mgl64.Vec3) *ConstantAngle {
	return &ConstantAngle{AxisA: axisA, AxisB: axisB, CosAngle: 0}
}

// AtAngle fixes the angle to φ radians.
func AtAngle(axisA, axisB mgl64.Vec3, phi float64) *ConstantAngle {
	return &ConstantAngle{AxisA: axisA, AxisB: axisB, CosAngle: math.Cos(phi)}
}

func (c *ConstantAngle) Rows() int { return 1 }

func (c *ConstantAngle) Residual(a, b *body.State, t float64) []float64 {
	a, b = resolve(a), resolve(b)
	ea := a.Orient.RotMat().Mul3x1(c.AxisA)
	eb := b.Orient.RotMat().Mul3x1(c.AxisB)
	return []float64{ea.Dot(eb) - c.CosAngle}
}

func (c *ConstantAngle) TwistJacobian(a, b *body.State) *mat.Dense {
	a, b = resolve(a), resolve(b)
	ra, rb := a.Orient.RotMat(), b.Orient.RotMat()
	ea := ra.Mul3x1(c.AxisA)
	eb := rb.Mul3x1(c.AxisB)

	j := mat.NewDense(1, 12, nil)
	setRowBlock(j, 0, 0, ra.Mul3(skew(c.AxisA)).Transpose().Mul3x1(eb).Mul(-1))
	setRowBlock(j, 0, 6, rb.Mul3(skew(c.AxisB)).Transpose().Mul3x1(ea).Mul(-1))
	return j
}

func (c *ConstantAngle) CoordJacobian(a, b *body.State) *mat.Dense {
	a, b = resolve(a), resolve(b)
	return CoordFromTwist(c.TwistJacobian(a, b), a.Orient, b.Orient)
}

func (c *ConstantAngle) Gamma(a, b *body.State, t float64) []float64 {
	a, b = resolve(a), resolve(b)
	ra, rb := a.Orient.RotMat(), b.Orient.RotMat()
	ea := ra.Mul3x1(c.AxisA)
	eb := rb.Mul3x1(c.AxisB)
	eadot := ra.Mul3x1(a.Omega.Cross(c.AxisA))
	ebdot := rb.Mul3x1(b.Omega.Cross(c.AxisB))

	g := centrip(a, c.AxisA).Dot(eb) + 2*eadot.Dot(ebdot) + ea.Dot(centrip(b, c.AxisB))
	return []float64{-g}
}

func (c *ConstantAngle) VelRHS(t float64) []float64 {
	return []float64{0}
}
