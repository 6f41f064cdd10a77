package quat

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// Mat34 is a 3×4 rate-map matrix in row-major order.
type Mat34 [3][4]float64

// MulQuat applies the map to a quaternion-shaped 4-vector.
func (m Mat34) MulQuat(p Quaternion) mgl64.Vec3 {
	var out mgl64.Vec3
	for i := 0; i < 3; i++ {
		out[i] = m[i][0]*p[0] + m[i][1]*p[1] + m[i][2]*p[2] + m[i][3]*p[3]
	}
	return out
}

// TMulVec applies the transposed map to a 3-vector.
func (m Mat34) TMulVec(v mgl64.Vec3) Quaternion {
	var out Quaternion
	for j := 0; j < 4; j++ {
		out[j] = m[0][j]*v[0] + m[1][j]*v[1] + m[2][j]*v[2]
	}
	return out
}

func (m Mat34) Scale(c float64) Mat34 {
	var out Mat34
	for i := range m {
		for j := range m[i] {
			out[i][j] = c * m[i][j]
		}
	}
	return out
}

// Dense returns the map as a gonum matrix.
func (m Mat34) Dense() *mat.Dense {
	d := mat.NewDense(3, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			d.Set(i, j, m[i][j])
		}
	}
	return d
}

// TDense returns the transposed map (4×3) as a gonum matrix.
func (m Mat34) TDense() *mat.Dense {
	d := mat.NewDense(4, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			d.Set(j, i, m[i][j])
		}
	}
	return d
}

// G is the world-frame angular velocity map, ω_world = 2·G(p)·ṗ.
// G is linear in its argument, so the time derivative Ġ is G(ṗ).
func G(p Quaternion) Mat34 {
	e0, e1, e2, e3 := p[0], p[1], p[2], p[3]
	return Mat34{
		{-e1, e0, -e3, e2},
		{-e2, e3, e0, -e1},
		{-e3, -e2, e1, e0},
	}
}

// E is the body-frame angular velocity map, ω_body = 2·E(p)·ṗ.
// E is linear in its argument, so the time derivative Ė is E(ṗ).
func E(p Quaternion) Mat34 {
	e0, e1, e2, e3 := p[0], p[1], p[2], p[3]
	return Mat34{
		{-e1, e0, e3, -e2},
		{-e2, -e3, e0, e1},
		{-e3, e2, -e1, e0},
	}
}

// RateFromBody converts a body-frame angular velocity to the quaternion
// rate, ṗ = ½·E(p)ᵀ·ω.
func RateFromBody(p Quaternion, omega mgl64.Vec3) Quaternion {
	r := E(p).TMulVec(omega)
	for i := range r {
		r[i] *= 0.5
	}
	return r
}

// RateFromWorld converts a world-frame angular velocity to the
// quaternion rate, ṗ = ½·G(p)ᵀ·ω.
func RateFromWorld(p Quaternion, omega mgl64.Vec3) Quaternion {
	r := G(p).TMulVec(omega)
	for i := range r {
		r[i] *= 0.5
	}
	return r
}

// BodyRate recovers ω_body = 2·E(p)·ṗ.
func BodyRate(p, pdot Quaternion) mgl64.Vec3 {
	return E(p).MulQuat(pdot).Mul(2)
}

// WorldRate recovers ω_world = 2·G(p)·ṗ.
func WorldRate(p, pdot Quaternion) mgl64.Vec3 {
	return G(p).MulQuat(pdot).Mul(2)
}
