// Package quat implements unit-quaternion (Euler parameter) kinematics
// for spatial rigid bodies: the rotation matrix map, the two 3×4 rate
// maps between quaternion rate and angular velocity, and conversions
// against [gonum.org/v1/gonum/num/quat].
//
// Conventions: quaternions are scalar-first (e0, e1, e2, e3) and map
// body frame to world frame. The two rate maps are deliberately kept as
// separately named functions,
//
//	ω_world = 2·G(p)·ṗ,  ṗ = ½·G(p)ᵀ·ω_world
//	ω_body  = 2·E(p)·ṗ,  ṗ = ½·E(p)ᵀ·ω_body
//
// because mixing frames silently produces wrong dynamics. Both maps are
// linear in p, so their time derivatives are G(ṗ) and E(ṗ).
package quat

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	gquat "gonum.org/v1/gonum/num/quat"
)

// Quaternion is a scalar-first Euler parameter 4-vector. Only unit
// quaternions represent rotations; p and -p represent the same rotation.
type Quaternion [4]float64

func Identity() Quaternion {
	return Quaternion{1, 0, 0, 0}
}

// FromAxisAngle builds the quaternion rotating by angle (radians) about
// the given axis. The axis need not be normalized.
func FromAxisAngle(axis mgl64.Vec3, angle float64) Quaternion {
	a := axis.Normalize()
	s := math.Sin(angle / 2)
	return Quaternion{math.Cos(angle / 2), s * a.X(), s * a.Y(), s * a.Z()}
}

func (p Quaternion) Norm() float64 {
	return math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2] + p[3]*p[3])
}

func (p Quaternion) Normalize() Quaternion {
	n := p.Norm()
	return Quaternion{p[0] / n, p[1] / n, p[2] / n, p[3] / n}
}

func (p Quaternion) Neg() Quaternion {
	return Quaternion{-p[0], -p[1], -p[2], -p[3]}
}

func (p Quaternion) Conj() Quaternion {
	return Quaternion{p[0], -p[1], -p[2], -p[3]}
}

func (p Quaternion) Vec() mgl64.Vec3 {
	return mgl64.Vec3{p[1], p[2], p[3]}
}

// Number converts to the gonum quaternion representation.
func (p Quaternion) Number() gquat.Number {
	return gquat.Number{Real: p[0], Imag: p[1], Jmag: p[2], Kmag: p[3]}
}

func FromNumber(n gquat.Number) Quaternion {
	return Quaternion{n.Real, n.Imag, n.Jmag, n.Kmag}
}

// Mul returns the quaternion product p*q (composition of rotations,
// q applied first).
func (p Quaternion) Mul(q Quaternion) Quaternion {
	return FromNumber(gquat.Mul(p.Number(), q.Number()))
}

// Rotate maps a body-frame vector to the world frame by conjugation,
// p v p*. Equivalent to RotMat()·v for unit p.
func (p Quaternion) Rotate(v mgl64.Vec3) mgl64.Vec3 {
	pv := gquat.Number{Imag: v.X(), Jmag: v.Y(), Kmag: v.Z()}
	r := gquat.Mul(gquat.Mul(p.Number(), pv), gquat.Conj(p.Number()))
	return mgl64.Vec3{r.Imag, r.Jmag, r.Kmag}
}

// RotMat returns the body-to-world rotation matrix. For unit p the
// result is orthogonal with determinant one; the formula degrades
// gracefully (no failure) for slightly non-unit p, which integration
// drift produces between renormalizations.
func (p Quaternion) RotMat() mgl64.Mat3 {
	e0, e1, e2, e3 := p[0], p[1], p[2], p[3]
	return mgl64.Mat3FromRows(
		mgl64.Vec3{e0*e0 + e1*e1 - e2*e2 - e3*e3, 2 * (e1*e2 - e0*e3), 2 * (e1*e3 + e0*e2)},
		mgl64.Vec3{2 * (e1*e2 + e0*e3), e0*e0 - e1*e1 + e2*e2 - e3*e3, 2 * (e2*e3 - e0*e1)},
		mgl64.Vec3{2 * (e1*e3 - e0*e2), 2 * (e2*e3 + e0*e1), e0*e0 - e1*e1 - e2*e2 + e3*e3},
	)
}

// FromRotMat recovers a unit quaternion from an orthonormal rotation
// matrix. The scalar-maximizing branch is chosen for numerical safety;
// the sign of the result is therefore one of the two valid choices.
func FromRotMat(r mgl64.Mat3) Quaternion {
	tr := r.Trace()
	var q Quaternion
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = Quaternion{s / 4, (r.At(2, 1) - r.At(1, 2)) / s, (r.At(0, 2) - r.At(2, 0)) / s, (r.At(1, 0) - r.At(0, 1)) / s}
	case r.At(0, 0) > r.At(1, 1) && r.At(0, 0) > r.At(2, 2):
		s := math.Sqrt(1+r.At(0, 0)-r.At(1, 1)-r.At(2, 2)) * 2
		q = Quaternion{(r.At(2, 1) - r.At(1, 2)) / s, s / 4, (r.At(0, 1) + r.At(1, 0)) / s, (r.At(0, 2) + r.At(2, 0)) / s}
	case r.At(1, 1) > r.At(2, 2):
		s := math.Sqrt(1+r.At(1, 1)-r.At(0, 0)-r.At(2, 2)) * 2
		q = Quaternion{(r.At(0, 2) - r.At(2, 0)) / s, (r.At(0, 1) + r.At(1, 0)) / s, s / 4, (r.At(1, 2) + r.At(2, 1)) / s}
	default:
		s := math.Sqrt(1+r.At(2, 2)-r.At(0, 0)-r.At(1, 1)) * 2
		q = Quaternion{(r.At(1, 0) - r.At(0, 1)) / s, (r.At(0, 2) + r.At(2, 0)) / s, (r.At(1, 2) + r.At(2, 1)) / s, s / 4}
	}
	return q.Normalize()
}
