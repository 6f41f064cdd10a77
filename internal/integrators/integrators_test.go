package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/hjelmeland/mbdsim/internal/dyn"
)

// decay is ẋ = −x on every slot, with the exact solution x₀·e^(−t).
// BodyStride slots keep the semi-implicit scheme's layout assumptions
// satisfied.
type decay struct{}

func (decay) StateDim() int { return dyn.BodyStride }

func (decay) Derive(x dyn.State, t float64) (dyn.State, error) {
	dx := make(dyn.State, len(x))
	for i := range x {
		dx[i] = -x[i]
	}
	return dx, nil
}

type failing struct{}

func (failing) StateDim() int { return dyn.BodyStride }

func (failing) Derive(x dyn.State, t float64) (dyn.State, error) {
	return nil, dyn.ErrSingular
}

func run(t *testing.T, integ dyn.Integrator, steps int, dt float64) dyn.State {
	t.Helper()
	x := make(dyn.State, dyn.BodyStride)
	for i := range x {
		x[i] = 1
	}
	var err error
	for i := 0; i < steps; i++ {
		x, err = integ.Step(decay{}, x, float64(i)*dt, dt)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	return x
}

func TestEulerFirstOrder(t *testing.T) {
	x := run(t, NewEuler(), 100, 0.01)
	want := math.Exp(-1)
	// Velocity slots follow the plain update; first order in dt.
	if err := math.Abs(x[7] - want); err > 5e-3 {
		t.Errorf("euler error %g too large", err)
	}
}

func TestRK4FourthOrder(t *testing.T) {
	x := run(t, NewRK4(), 100, 0.01)
	want := math.Exp(-1)
	if err := math.Abs(x[7] - want); err > 1e-9 {
		t.Errorf("rk4 error %g too large", err)
	}
}

func TestRK4ConvergenceOrder(t *testing.T) {
	// Halving dt must shrink the error by roughly 2⁴.
	errAt := func(dt float64) float64 {
		steps := int(1.0/dt + 0.5)
		x := run(t, NewRK4(), steps, dt)
		return math.Abs(x[7] - math.Exp(-1))
	}
	e1, e2 := errAt(0.02), errAt(0.01)
	ratio := e1 / e2
	if ratio < 10 || ratio > 25 {
		t.Errorf("error ratio %g, want about 16", ratio)
	}
}

func TestStepDoesNotMutateInput(t *testing.T) {
	x := make(dyn.State, dyn.BodyStride)
	for i := range x {
		x[i] = float64(i)
	}
	before := x.Clone()

	for _, integ := range []dyn.Integrator{NewEuler(), NewSemiImplicit(), NewRK4()} {
		if _, err := integ.Step(decay{}, x, 0, 0.1); err != nil {
			t.Fatalf("step: %v", err)
		}
		for i := range x {
			if x[i] != before[i] {
				t.Fatalf("input state mutated at %d", i)
			}
		}
	}
}

func TestDeriveErrorPropagates(t *testing.T) {
	x := make(dyn.State, dyn.BodyStride)
	for _, integ := range []dyn.Integrator{NewEuler(), NewSemiImplicit(), NewRK4()} {
		if _, err := integ.Step(failing{}, x, 0, 0.1); !errors.Is(err, dyn.ErrSingular) {
			t.Errorf("%T: err = %v, want ErrSingular", integ, err)
		}
	}
}
