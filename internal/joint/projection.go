package joint

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/hjelmeland/mbdsim/internal/body"
)

// ConstantProjection holds the projection of the inter-point vector onto
// a body-A-fixed direction at a constant value (the type-2
// perpendicularity condition for Value = 0). One row:
//
//	g = aA · (rB + sB − rA − sA) − Value
//
// with aA = RA·aA′ the world image of the body-A-fixed direction.
type ConstantProjection struct {
	Axis   mgl64.Vec3 // aA′, body A frame
	PointA mgl64.Vec3 // sA′
	PointB mgl64.Vec3 // sB′
	Value  float64
}

func (c *ConstantProjection) Rows() int { return 1 }

// span is the world vector from the body-A point to the body-B point.
func (c *ConstantProjection) span(a, b *body.State) mgl64.Vec3 {
	return b.Point(c.PointB).Sub(a.Point(c.PointA))
}

func (c *ConstantProjection) Residual(a, b *body.State, t float64) []float64 {
	a, b = resolve(a), resolve(b)
	aa := a.Orient.RotMat().Mul3x1(c.Axis)
	return []float64{aa.Dot(c.span(a, b)) - c.Value}
}

func (c *ConstantProjection) TwistJacobian(a, b *body.State) *mat.Dense {
	a, b = resolve(a), resolve(b)
	ra, rb := a.Orient.RotMat(), b.Orient.RotMat()
	aa := ra.Mul3x1(c.Axis)
	d := c.span(a, b)

	j := mat.NewDense(1, 12, nil)
	// ωA couples through both the rotating direction and the moving
	// body-A attachment point.
	wa := ra.Mul3(skew(c.Axis)).Transpose().Mul3x1(d).Mul(-1).
		Add(ra.Mul3(skew(c.PointA)).Transpose().Mul3x1(aa))
	setRowBlock(j, 0, 0, wa)
	setRowBlock(j, 0, 3, aa.Mul(-1))
	setRowBlock(j, 0, 6, rb.Mul3(skew(c.PointB)).Transpose().Mul3x1(aa).Mul(-1))
	setRowBlock(j, 0, 9, aa)
	return j
}

func (c *ConstantProjection) CoordJacobian(a, b *body.State) *mat.Dense {
	a, b = resolve(a), resolve(b)
	return CoordFromTwist(c.TwistJacobian(a, b), a.Orient, b.Orient)
}

func (c *ConstantProjection) Gamma(a, b *body.State, t float64) []float64 {
	a, b = resolve(a), resolve(b)
	ra := a.Orient.RotMat()
	aa := ra.Mul3x1(c.Axis)
	d := c.span(a, b)

	adot := ra.Mul3x1(a.Omega.Cross(c.Axis))
	ddot := b.PointVelocity(c.PointB).Sub(a.PointVelocity(c.PointA))
	ddd := centrip(b, c.PointB).Sub(centrip(a, c.PointA))

	g := centrip(a, c.Axis).Dot(d) + 2*adot.Dot(ddot) + aa.Dot(ddd)
	return []float64{-g}
}

func (c *ConstantProjection) VelRHS(t float64) []float64 {
	return []float64{0}
}
