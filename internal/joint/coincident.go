package joint

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/hjelmeland/mbdsim/internal/body"
)

// CoincidentPoint forces a body-A-fixed point and a body-B-fixed point
// to coincide in the world frame (the ball joint core). Three rows:
//
//	g = rB + RB·sB′ − rA − RA·sA′
type CoincidentPoint struct {
	PointA mgl64.Vec3 // sA′, body A frame
	PointB mgl64.Vec3 // sB′, body B frame
}

func (c *CoincidentPoint) Rows() int { return 3 }

func (c *CoincidentPoint) Residual(a, b *body.State, t float64) []float64 {
	a, b = resolve(a), resolve(b)
	g := b.Point(c.PointB).Sub(a.Point(c.PointA))
	return []float64{g.X(), g.Y(), g.Z()}
}

func (c *CoincidentPoint) TwistJacobian(a, b *body.State) *mat.Dense {
	a, b = resolve(a), resolve(b)
	j := mat.NewDense(3, 12, nil)
	setBlock(j, 0, 0, a.Orient.RotMat().Mul3(skew(c.PointA)))
	setBlock(j, 0, 3, mgl64.Ident3().Mul(-1))
	setBlock(j, 0, 6, b.Orient.RotMat().Mul3(skew(c.PointB)).Mul(-1))
	setBlock(j, 0, 9, mgl64.Ident3())
	return j
}

func (c *CoincidentPoint) CoordJacobian(a, b *body.State) *mat.Dense {
	a, b = resolve(a), resolve(b)
	return CoordFromTwist(c.TwistJacobian(a, b), a.Orient, b.Orient)
}

func (c *CoincidentPoint) Gamma(a, b *body.State, t float64) []float64 {
	a, b = resolve(a), resolve(b)
	g := centrip(a, c.PointA).Sub(centrip(b, c.PointB))
	return []float64{g.X(), g.Y(), g.Z()}
}

func (c *CoincidentPoint) VelRHS(t float64) []float64 {
	return make([]float64, 3)
}
