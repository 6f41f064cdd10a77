package dyn

import "math"

// BodyStride is the number of state slots per rigid body: unit
// quaternion (4), world position (3), body-frame angular velocity (3),
// world linear velocity (3).
const BodyStride = 13

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// System is a first-order dynamical system. For the constrained
// multibody system, Derive solves the equation-of-motion block system at
// (x, t); a singular or ill-conditioned solve is reported as an error.
type System interface {
	Derive(x State, t float64) (State, error)
	StateDim() int
}

type Integrator interface {
	Step(dyn System, x State, t, dt float64) (State, error)
}

// Metric observes the raw state once per step and reduces it to a
// scalar at the end of a run.
type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, t float64)
}

type Config struct {
	Dt            float64
	Duration      float64
	Alpha         float64 // Baumgarte velocity gain
	Beta          float64 // Baumgarte position gain
	RenormEvery   int     // quaternion renormalization cadence in steps
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.001,
		Duration:      2.0,
		Alpha:         5.0,
		Beta:          5.0,
		RenormEvery:   1,
		ValidateState: true,
	}
}

type Result struct {
	Times      []float64
	States     []State
	Lambdas    [][]float64 // constraint reactions per recorded step
	Residuals  []float64   // ‖g‖ per recorded step
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}
