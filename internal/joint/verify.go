package joint

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/hjelmeland/mbdsim/internal/body"
	"github.com/hjelmeland/mbdsim/internal/diff"
)

// Independent verification path: every closed-form Jacobian and γ term
// can be recomputed by numerically differentiating the residual with
// respect to the packed 14-vector configuration and mapping through the
// bridge. Verify compares the two paths; the test suites lean on it and
// the CLI exposes it as a scenario diagnostic.

// NumericCoordJacobian is the central-difference Jacobian of the
// residual with respect to [pA; rA; pB; rB].
func NumericCoordJacobian(c Constraint, a, b *body.State, t float64) *mat.Dense {
	a, b = resolve(a), resolve(b)
	f := func(x []float64) []float64 {
		sa, sb := body.UnpackPair(x, a, b)
		return c.Residual(&sa, &sb, t)
	}
	rows := diff.Jacobian(f, body.PackPair(a, b), diff.DefaultStep)
	out := mat.NewDense(len(rows), 14, nil)
	for i, r := range rows {
		out.SetRow(i, r)
	}
	return out
}

// NumericTwistJacobian maps the numeric coordinate Jacobian back
// through the bridge.
func NumericTwistJacobian(c Constraint, a, b *body.State, t float64) *mat.Dense {
	a, b = resolve(a), resolve(b)
	return TwistFromCoord(NumericCoordJacobian(c, a, b, t), a.Orient, b.Orient)
}

// NumericGamma differentiates the twist Jacobian along the
// configuration flow induced by the current velocities:
//
//	γ ≈ −(dAω/dt)·twist + ν̇(t)
//
// holding the velocities fixed, which is exactly the quadratic-velocity
// term of the acceleration-level constraint.
func NumericGamma(c Constraint, a, b *body.State, t float64) []float64 {
	a, b = resolve(a), resolve(b)
	const h = 1e-6

	jac := func(s float64) *mat.Dense {
		sa, sb := flow(a, s), flow(b, s)
		return c.TwistJacobian(&sa, &sb)
	}
	jp, jm := jac(h), jac(-h)

	tw := pairTwist(a, b)
	out := make([]float64, c.Rows())
	for i := 0; i < c.Rows(); i++ {
		sum := 0.0
		for k := 0; k < 12; k++ {
			sum += (jp.At(i, k) - jm.At(i, k)) / (2 * h) * tw[k]
		}
		out[i] = -sum + diff.Central(func(tt float64) float64 { return c.VelRHS(tt)[i] }, t, h)
	}
	return out
}

// flow advances a body's configuration by time s along its current
// velocities, leaving the velocities untouched.
func flow(b *body.State, s float64) body.State {
	nb := *b
	pd := b.RateQuat()
	for i := range nb.Orient {
		nb.Orient[i] += s * pd[i]
	}
	nb.Pos = b.Pos.Add(b.Vel.Mul(s))
	return nb
}

func pairTwist(a, b *body.State) [12]float64 {
	var tw [12]float64
	copy(tw[0:6], aSlice(a.Twist()))
	copy(tw[6:12], aSlice(b.Twist()))
	return tw
}

func aSlice(v [6]float64) []float64 { return v[:] }

// Verify cross-checks the closed-form twist Jacobian, coordinate
// Jacobian, γ term, and the bridge round-trip against the numeric
// references at the given state, to tolerance tol. It reports the first
// discrepancy found.
func Verify(c Constraint, a, b *body.State, t, tol float64) error {
	a, b = resolve(a), resolve(b)

	// The raw ∂g/∂q carries a radial (quaternion-norm) component that the
	// bridged closed form annihilates (Aq·p = 0), so the numeric Aq
	// reference is mapped through the bridge both ways before comparing.
	awRef := NumericTwistJacobian(c, a, b, t)
	aqRef := CoordFromTwist(awRef, a.Orient, b.Orient)

	aq := c.CoordJacobian(a, b)
	if err := compare("coordinate jacobian", aq, aqRef, tol); err != nil {
		return err
	}
	aw := c.TwistJacobian(a, b)
	if err := compare("twist jacobian", aw, awRef, tol); err != nil {
		return err
	}

	// Bridge round-trip: Aω survives twist→coord→twist exactly.
	rt := TwistFromCoord(CoordFromTwist(aw, a.Orient, b.Orient), a.Orient, b.Orient)
	if err := compare("bridge round-trip", aw, rt, tol); err != nil {
		return err
	}

	// Aq·q̇ must equal Aω·twist for rates built from the velocities.
	qd := coordRates(a, b)
	tw := pairTwist(a, b)
	for i := 0; i < c.Rows(); i++ {
		var viaQ, viaW float64
		for k := 0; k < 14; k++ {
			viaQ += aq.At(i, k) * qd[k]
		}
		for k := 0; k < 12; k++ {
			viaW += aw.At(i, k) * tw[k]
		}
		if math.Abs(viaQ-viaW) > tol {
			return fmt.Errorf("joint: rate identity row %d: Aq·q̇ = %g, Aω·twist = %g", i, viaQ, viaW)
		}
	}

	gm := c.Gamma(a, b, t)
	ref := NumericGamma(c, a, b, t)
	for i := range gm {
		if math.Abs(gm[i]-ref[i]) > tol*(1+math.Abs(ref[i])) {
			return fmt.Errorf("joint: gamma row %d: closed form %g, numeric %g", i, gm[i], ref[i])
		}
	}
	return nil
}

func coordRates(a, b *body.State) [14]float64 {
	var qd [14]float64
	pa, pb := a.RateQuat(), b.RateQuat()
	copy(qd[0:4], pa[:])
	copy(qd[4:7], a.Vel[:])
	copy(qd[7:11], pb[:])
	copy(qd[11:14], b.Vel[:])
	return qd
}

func compare(what string, got, want *mat.Dense, tol float64) error {
	r, cn := got.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < cn; j++ {
			g, w := got.At(i, j), want.At(i, j)
			if math.Abs(g-w) > tol*(1+math.Abs(w)) {
				return fmt.Errorf("joint: %s (%d,%d): closed form %g, numeric %g", what, i, j, g, w)
			}
		}
	}
	return nil
}
