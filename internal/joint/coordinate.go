package joint

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/dual"

	"github.com/hjelmeland/mbdsim/internal/body"
	"github.com/hjelmeland/mbdsim/internal/diff"
)

// SimpleCoordinate fixes one world coordinate of a body-A-fixed point to
// a constant. One row, one body; the second body slot is ignored.
type SimpleCoordinate struct {
	Point mgl64.Vec3 // sA′, body A frame
	Index int        // world coordinate 0..2
	Value float64
}

func (c *SimpleCoordinate) Rows() int { return 1 }

func (c *SimpleCoordinate) Residual(a, b *body.State, t float64) []float64 {
	a = resolve(a)
	return []float64{a.Point(c.Point)[c.Index] - c.Value}
}

func (c *SimpleCoordinate) TwistJacobian(a, b *body.State) *mat.Dense {
	a = resolve(a)
	j := mat.NewDense(1, 12, nil)
	rot := a.Orient.RotMat().Mul3(skew(c.Point))
	// Ṗ = v − RA·s̃A′·ω, row Index of it.
	setRowBlock(j, 0, 0, mgl64.Vec3{-rot.At(c.Index, 0), -rot.At(c.Index, 1), -rot.At(c.Index, 2)})
	j.Set(0, 3+c.Index, 1)
	return j
}

func (c *SimpleCoordinate) CoordJacobian(a, b *body.State) *mat.Dense {
	a, b = resolve(a), resolve(b)
	return CoordFromTwist(c.TwistJacobian(a, b), a.Orient, b.Orient)
}

func (c *SimpleCoordinate) Gamma(a, b *body.State, t float64) []float64 {
	a = resolve(a)
	return []float64{-centrip(a, c.Point)[c.Index]}
}

func (c *SimpleCoordinate) VelRHS(t float64) []float64 {
	return []float64{0}
}

// TimeLaw is a prescribed motion f(t) with its first two derivatives.
type TimeLaw struct {
	F, Fdot, Fddot func(float64) float64
}

// Constant is the degenerate law f(t) = c.
func Constant(c float64) TimeLaw {
	zero := func(float64) float64 { return 0 }
	return TimeLaw{F: func(float64) float64 { return c }, Fdot: zero, Fddot: zero}
}

// Harmonic is f(t) = offset + amp·sin(freq·t + phase).
func Harmonic(amp, freq, phase, offset float64) TimeLaw {
	return TimeLaw{
		F:     func(t float64) float64 { return offset + amp*math.Sin(freq*t+phase) },
		Fdot:  func(t float64) float64 { return amp * freq * math.Cos(freq*t+phase) },
		Fddot: func(t float64) float64 { return -amp * freq * freq * math.Sin(freq*t+phase) },
	}
}

// FromDual derives the rate of a scalar law by dual-number evaluation,
// so callers supply only f. The second derivative is a central
// difference of the dual rate.
func FromDual(f func(dual.Number) dual.Number) TimeLaw {
	rate := func(t float64) float64 {
		_, d := diff.Dual(f, t)
		return d
	}
	return TimeLaw{
		F: func(t float64) float64 {
			v, _ := diff.Dual(f, t)
			return v
		},
		Fdot: rate,
		Fddot: func(t float64) float64 {
			return diff.Central(rate, t, 1e-5)
		},
	}
}

// DrivingCoordinate prescribes one world coordinate of a body-A-fixed
// point as a function of time (rheonomic). The velocity and acceleration
// levels carry ḟ(t) and f̈(t) as known right-hand sides.
type DrivingCoordinate struct {
	Point mgl64.Vec3
	Index int
	Law   TimeLaw
}

func (c *DrivingCoordinate) simple(t float64) *SimpleCoordinate {
	return &SimpleCoordinate{Point: c.Point, Index: c.Index, Value: c.Law.F(t)}
}

func (c *DrivingCoordinate) Rows() int { return 1 }

func (c *DrivingCoordinate) Residual(a, b *body.State, t float64) []float64 {
	return c.simple(t).Residual(a, b, t)
}

func (c *DrivingCoordinate) TwistJacobian(a, b *body.State) *mat.Dense {
	return c.simple(0).TwistJacobian(a, b)
}

func (c *DrivingCoordinate) CoordJacobian(a, b *body.State) *mat.Dense {
	return c.simple(0).CoordJacobian(a, b)
}

func (c *DrivingCoordinate) Gamma(a, b *body.State, t float64) []float64 {
	a = resolve(a)
	return []float64{c.Law.Fddot(t) - centrip(a, c.Point)[c.Index]}
}

func (c *DrivingCoordinate) VelRHS(t float64) []float64 {
	return []float64{c.Law.Fdot(t)}
}
