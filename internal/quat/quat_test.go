package quat

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	gquat "gonum.org/v1/gonum/num/quat"
)

func randomUnit(rng *rand.Rand) Quaternion {
	p := Quaternion{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
	return p.Normalize()
}

func mat3MaxDiff(a, b mgl64.Mat3) float64 {
	max := 0.0
	for i := range a {
		d := math.Abs(a[i] - b[i])
		if d > max {
			max = d
		}
	}
	return max
}

func TestRotMatOrthonormal(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		p := randomUnit(rng)
		r := p.RotMat()

		rtr := r.Transpose().Mul3(r)
		if d := mat3MaxDiff(rtr, mgl64.Ident3()); d > 1e-12 {
			t.Fatalf("RᵀR deviates from identity by %g for %v", d, p)
		}
		if det := r.Det(); math.Abs(det-1) > 1e-12 {
			t.Fatalf("det(R) = %g, want 1", det)
		}
	}
}

func TestRotMatSignInvariance(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 20; i++ {
		p := randomUnit(rng)
		if d := mat3MaxDiff(p.RotMat(), p.Neg().RotMat()); d > 1e-15 {
			t.Fatalf("R(p) and R(-p) differ by %g", d)
		}
	}
}

func TestRotateMatchesRotMat(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 20; i++ {
		p := randomUnit(rng)
		v := mgl64.Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}

		byConj := p.Rotate(v)
		byMat := p.RotMat().Mul3x1(v)
		if byConj.Sub(byMat).Len() > 1e-12 {
			t.Fatalf("conjugation %v and matrix %v disagree", byConj, byMat)
		}
	}
}

func TestFromAxisAngleKnown(t *testing.T) {
	// 90 degrees about z sends x to y.
	p := FromAxisAngle(mgl64.Vec3{0, 0, 1}, math.Pi/2)
	got := p.Rotate(mgl64.Vec3{1, 0, 0})
	want := mgl64.Vec3{0, 1, 0}
	if got.Sub(want).Len() > 1e-12 {
		t.Errorf("rotated x = %v, want %v", got, want)
	}
}

func TestMulComposesRotations(t *testing.T) {
	a := FromAxisAngle(mgl64.Vec3{0, 0, 1}, 0.7)
	b := FromAxisAngle(mgl64.Vec3{0, 1, 0}, -0.3)
	v := mgl64.Vec3{0.2, -1.1, 0.5}

	composed := a.Mul(b).Rotate(v)
	sequential := a.Rotate(b.Rotate(v))
	if composed.Sub(sequential).Len() > 1e-12 {
		t.Errorf("(a*b)v = %v, a(bv) = %v", composed, sequential)
	}
}

func TestFromRotMatRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 50; i++ {
		p := randomUnit(rng)
		q := FromRotMat(p.RotMat())

		// Recovery may return either sign.
		same := math.Abs(p[0]-q[0])+math.Abs(p[1]-q[1])+math.Abs(p[2]-q[2])+math.Abs(p[3]-q[3]) < 1e-10
		flip := math.Abs(p[0]+q[0])+math.Abs(p[1]+q[1])+math.Abs(p[2]+q[2])+math.Abs(p[3]+q[3]) < 1e-10
		if !same && !flip {
			t.Fatalf("round trip %v -> %v", p, q)
		}
	}
}

func TestFromRotMatBranches(t *testing.T) {
	// Rotations near pi exercise the non-trace branches.
	for _, axis := range []mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 1}} {
		p := FromAxisAngle(axis, math.Pi-1e-4)
		q := FromRotMat(p.RotMat())
		if d := mat3MaxDiff(p.RotMat(), q.RotMat()); d > 1e-9 {
			t.Errorf("axis %v: recovered rotation differs by %g", axis, d)
		}
	}
}

func TestNumberRoundTrip(t *testing.T) {
	p := Quaternion{0.5, -0.5, 0.5, 0.5}
	if got := FromNumber(p.Number()); got != p {
		t.Errorf("got %v, want %v", got, p)
	}

	// Product must agree with gonum's.
	q := FromAxisAngle(mgl64.Vec3{1, 0, 0}, 0.4)
	want := FromNumber(gquat.Mul(p.Number(), q.Number()))
	if got := p.Mul(q); got != want {
		t.Errorf("Mul = %v, want %v", got, want)
	}
}

func TestNormalizeRestoresUnit(t *testing.T) {
	p := Quaternion{1.01, 0.02, -0.015, 0.998}
	if n := p.Normalize().Norm(); math.Abs(n-1) > 1e-15 {
		t.Errorf("norm after normalize = %g", n)
	}
}
