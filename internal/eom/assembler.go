// Package eom assembles and solves the constrained equations of motion.
//
// Assembly is done in body-frame twist space, where each body's mass
// matrix blockdiag(J, m·I₃) is constant. The index-3 DAE is reduced per
// step to the symmetric-indefinite block system
//
//	[ M   Cᵀ ] [ accel ]   [ Q − gyro            ]
//	[ C   0  ] [ λ     ] = [ γ − 2α·Ċ − β²·C     ]
//
// with Baumgarte feedback on the constraint block suppressing position
// and velocity drift.
package eom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/hjelmeland/mbdsim/internal/dyn"
	"github.com/hjelmeland/mbdsim/internal/system"
)

type Assembler struct {
	Alpha float64 // Baumgarte velocity gain
	Beta  float64 // Baumgarte position gain
}

func New(alpha, beta float64) *Assembler {
	return &Assembler{Alpha: alpha, Beta: beta}
}

// Solution is one step's solve: twist-space accelerations per body and
// the Lagrange multipliers (constraint reactions) for each row.
type Solution struct {
	Accel  []float64 // 6 per body: [ω̇_body; v̇_world]
	Lambda []float64
}

// Solve assembles and solves the block system at time t for the
// system's current state. A rank-deficient constraint Jacobian
// (redundant constraints, joint singularity) surfaces here as
// dyn.ErrSingular.
func (as *Assembler) Solve(s *system.System, t float64) (*Solution, error) {
	n := s.DOF()
	m := s.ConstraintRows()
	dim := n + m

	k := mat.NewDense(dim, dim, nil)
	rhs := mat.NewVecDense(dim, nil)

	as.fillMass(k, s)
	as.fillForces(rhs, s)

	if m > 0 {
		cq := s.Jacobian()
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				v := cq.At(i, j)
				k.Set(n+i, j, v)
				k.Set(j, n+i, v)
			}
		}

		g := s.Residual(t)
		gamma := s.Gamma(t)
		nu := s.VelRHS(t)
		tw := s.Twist()
		for i := 0; i < m; i++ {
			cdot := -nu[i]
			for j := 0; j < n; j++ {
				cdot += cq.At(i, j) * tw[j]
			}
			rhs.SetVec(n+i, gamma[i]-2*as.Alpha*cdot-as.Beta*as.Beta*g[i])
		}
	}

	// SolveVec reports near-singularity as a mat.Condition error; both
	// exact and numerical rank deficiency are failures here.
	var x mat.VecDense
	if err := x.SolveVec(k, rhs); err != nil {
		return nil, fmt.Errorf("%w: %v", dyn.ErrSingular, err)
	}

	sol := &Solution{
		Accel:  make([]float64, n),
		Lambda: make([]float64, m),
	}
	for i := 0; i < n; i++ {
		sol.Accel[i] = x.AtVec(i)
	}
	for i := 0; i < m; i++ {
		sol.Lambda[i] = x.AtVec(n + i)
	}
	for _, v := range sol.Accel {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, dyn.ErrInvalidState
		}
	}
	return sol, nil
}

// fillMass writes blockdiag(Jᵢ, mᵢ·I₃) for each body.
func (as *Assembler) fillMass(k *mat.Dense, s *system.System) {
	for bi := range s.Bodies {
		b := &s.Bodies[bi]
		o := 6 * bi
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				k.Set(o+i, o+j, b.Inertia.At(i, j))
			}
			k.Set(o+3+i, o+3+i, b.Mass)
		}
	}
}

// fillForces writes the generalized force vector: applied torques mapped
// to the body frame minus the gyroscopic term ω×(Jω), and world-frame
// forces plus gravity. Point forces contribute their moment arm about
// the center of mass.
func (as *Assembler) fillForces(rhs *mat.VecDense, s *system.System) {
	for bi := range s.Bodies {
		b := &s.Bodies[bi]
		o := 6 * bi
		r := b.Orient.RotMat()

		torque := b.Omega.Cross(b.Inertia.Mul3x1(b.Omega)).Mul(-1)
		force := s.Gravity.Mul(b.Mass)

		for _, pf := range s.Forces {
			if pf.Body != bi {
				continue
			}
			force = force.Add(pf.Force)
			arm := r.Mul3x1(pf.Point)
			torque = torque.Add(r.Transpose().Mul3x1(arm.Cross(pf.Force)))
		}
		for _, tq := range s.Torques {
			if tq.Body != bi {
				continue
			}
			torque = torque.Add(r.Transpose().Mul3x1(tq.Moment))
		}

		for i := 0; i < 3; i++ {
			rhs.SetVec(o+i, torque[i])
			rhs.SetVec(o+3+i, force[i])
		}
	}
}
