// Package sim orchestrates simulation runs: it reduces the constrained
// multibody system to a first-order dynamics, steps it with a chosen
// integrator, renormalizes quaternions, and records state, constraint
// residuals, and Lagrange multipliers.
package sim

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/hjelmeland/mbdsim/internal/dyn"
	"github.com/hjelmeland/mbdsim/internal/eom"
	"github.com/hjelmeland/mbdsim/internal/system"
)

type Simulator struct {
	sys        *system.System
	dynamics   *Dynamics
	integrator dyn.Integrator
	metrics    []dyn.Metric
	observers  []dyn.Observer
}

func New(sys *system.System, integrator dyn.Integrator, cfg dyn.Config) *Simulator {
	asm := eom.New(cfg.Alpha, cfg.Beta)
	return &Simulator{
		sys:        sys,
		dynamics:   NewDynamics(sys, asm),
		integrator: integrator,
	}
}

func (s *Simulator) AddMetric(m dyn.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dyn.Observer) { s.observers = append(s.observers, o) }

// Dynamics exposes the wrapped first-order system, mainly for callers
// that step manually (live views).
func (s *Simulator) Dynamics() *Dynamics { return s.dynamics }

// Run validates the system, then advances it from its current state for
// cfg.Duration. The sequential pipeline per step is: evaluate
// constraints, assemble and solve the block system, integrate,
// renormalize. The system's bodies hold the final state afterwards.
func (s *Simulator) Run(ctx context.Context, cfg dyn.Config) (*dyn.Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if err := s.sys.Validate(); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Dt)
	result := &dyn.Result{
		Times:     make([]float64, 0, steps+1),
		States:    make([]dyn.State, 0, steps+1),
		Lambdas:   make([][]float64, 0, steps),
		Residuals: make([]float64, 0, steps+1),
		Metrics:   make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := s.sys.PackState()
	t := 0.0
	s.record(result, x, t)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for _, m := range s.metrics {
			m.Observe(x, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, t)
		}

		s.dynamics.BeginStep()
		newX, err := s.integrator.Step(s.dynamics, x, t, cfg.Dt)
		if err != nil {
			werr := &dyn.SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: err}
			result.Errors = append(result.Errors, werr)
			return result, werr
		}
		result.Lambdas = append(result.Lambdas, append([]float64(nil), s.dynamics.Lambda()...))

		if cfg.RenormEvery > 0 && (i+1)%cfg.RenormEvery == 0 {
			Renormalize(newX)
		}

		if cfg.ValidateState && !newX.IsValid() {
			werr := &dyn.SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: dyn.ErrInvalidState}
			result.Errors = append(result.Errors, werr)
			return result, werr
		}

		x = newX
		t += cfg.Dt
		result.StepsTaken++
		s.record(result, x, t)
	}

	if err := s.sys.ApplyState(x); err != nil {
		return result, err
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

func (s *Simulator) record(result *dyn.Result, x dyn.State, t float64) {
	result.Times = append(result.Times, t)
	result.States = append(result.States, x.Clone())
	g := s.dynamics.Residual(x, t)
	if len(g) == 0 {
		result.Residuals = append(result.Residuals, 0)
		return
	}
	result.Residuals = append(result.Residuals, floats.Norm(g, 2))
}

func (s *Simulator) validateConfig(cfg dyn.Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.Alpha < 0 || cfg.Beta < 0 {
		return fmt.Errorf("stabilization gains must be non-negative, got α=%f β=%f", cfg.Alpha, cfg.Beta)
	}
	return nil
}
