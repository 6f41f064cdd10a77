// Package body defines the per-body state of a spatial rigid body and
// its packing into flat coordinate vectors for differentiation and
// integration.
package body

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/hjelmeland/mbdsim/internal/quat"
)

// State is one free 6-DOF rigid body. Orientation maps body frame to
// world frame; the angular velocity is expressed in the body frame, the
// linear velocity in the world frame. Mass properties are about the
// center of mass, with the body origin at the center of mass.
type State struct {
	Orient  quat.Quaternion // p, unit
	Pos     mgl64.Vec3      // r, world
	Omega   mgl64.Vec3      // ω, body frame
	Vel     mgl64.Vec3      // v, world
	Mass    float64
	Inertia mgl64.Mat3 // J, body frame, symmetric positive-definite
}

func New() State {
	return State{
		Orient:  quat.Identity(),
		Mass:    1,
		Inertia: mgl64.Ident3(),
	}
}

// Point maps a body-fixed point to world coordinates.
func (s *State) Point(local mgl64.Vec3) mgl64.Vec3 {
	return s.Pos.Add(s.Orient.RotMat().Mul3x1(local))
}

// PointVelocity is the world velocity of a body-fixed point,
// v + R(ω×s′).
func (s *State) PointVelocity(local mgl64.Vec3) mgl64.Vec3 {
	return s.Vel.Add(s.Orient.RotMat().Mul3x1(s.Omega.Cross(local)))
}

// RateQuat is the quaternion rate induced by the current body-frame
// angular velocity, ṗ = ½·E(p)ᵀ·ω.
func (s *State) RateQuat() quat.Quaternion {
	return quat.RateFromBody(s.Orient, s.Omega)
}

// Twist returns the body's 6-velocity [ω_body; v_world].
func (s *State) Twist() [6]float64 {
	return [6]float64{
		s.Omega.X(), s.Omega.Y(), s.Omega.Z(),
		s.Vel.X(), s.Vel.Y(), s.Vel.Z(),
	}
}
