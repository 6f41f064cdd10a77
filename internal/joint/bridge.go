package joint

import (
	"gonum.org/v1/gonum/mat"

	"github.com/hjelmeland/mbdsim/internal/quat"
)

// The bridge converts constraint Jacobians between twist space
// ([ωA;vA;ωB;vB], body-frame angular velocities) and coordinate space
// ([ṗA;vA;ṗB;vB]) through the body-frame rate maps:
//
//	Aq = Aω · blockdiag(2E(pA), I₃, 2E(pB), I₃)
//	Aω = Aq · blockdiag(½E(pA)ᵀ, I₃, ½E(pB)ᵀ, I₃)
//
// The two conversions are exact mutual inverses only on the subspace of
// quaternion rates reachable from physical angular velocities, because
// E(p)ᵀE(p) ≠ I₄ in general; round-trip identities therefore hold for
// Aω but not for arbitrary Aq. That asymmetry is a property of the
// Euler-parameter parametrization, not of this code.

// TwistToCoordMap is the 12×14 map blockdiag(2E(pA), I₃, 2E(pB), I₃)
// taking coordinate rates [ṗA;vA;ṗB;vB] to twists [ωA;vA;ωB;vB].
func TwistToCoordMap(pa, pb quat.Quaternion) *mat.Dense {
	m := mat.NewDense(12, 14, nil)
	insert34(m, 0, 0, quat.E(pa).Scale(2))
	insertIdent(m, 3, 4)
	insert34(m, 6, 7, quat.E(pb).Scale(2))
	insertIdent(m, 9, 11)
	return m
}

// CoordToTwistMap is the 14×12 map blockdiag(½E(pA)ᵀ, I₃, ½E(pB)ᵀ, I₃)
// taking twists to coordinate rates.
func CoordToTwistMap(pa, pb quat.Quaternion) *mat.Dense {
	m := mat.NewDense(14, 12, nil)
	insert43(m, 0, 0, quat.E(pa).Scale(0.5))
	insertIdent(m, 4, 3)
	insert43(m, 7, 6, quat.E(pb).Scale(0.5))
	insertIdent(m, 11, 9)
	return m
}

// CoordFromTwist converts a twist-space Jacobian (rows×12) to the
// coordinate-space Jacobian (rows×14).
func CoordFromTwist(aw *mat.Dense, pa, pb quat.Quaternion) *mat.Dense {
	r, _ := aw.Dims()
	out := mat.NewDense(r, 14, nil)
	out.Mul(aw, TwistToCoordMap(pa, pb))
	return out
}

// TwistFromCoord converts a coordinate-space Jacobian (rows×14) back to
// twist space (rows×12).
func TwistFromCoord(aq *mat.Dense, pa, pb quat.Quaternion) *mat.Dense {
	r, _ := aq.Dims()
	out := mat.NewDense(r, 12, nil)
	out.Mul(aq, CoordToTwistMap(pa, pb))
	return out
}

func insert34(dst *mat.Dense, row, col int, m quat.Mat34) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			dst.Set(row+i, col+j, m[i][j])
		}
	}
}

func insert43(dst *mat.Dense, row, col int, m quat.Mat34) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			dst.Set(row+j, col+i, m[i][j])
		}
	}
}

func insertIdent(dst *mat.Dense, row, col int) {
	for i := 0; i < 3; i++ {
		dst.Set(row+i, col+i, 1)
	}
}
