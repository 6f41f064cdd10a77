package tui

import (
	"math"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/hjelmeland/mbdsim/internal/body"
	"github.com/hjelmeland/mbdsim/internal/dyn"
	"github.com/hjelmeland/mbdsim/internal/integrators"
	"github.com/hjelmeland/mbdsim/internal/sim"
	"github.com/hjelmeland/mbdsim/internal/system"
)

func spinModel(renormEvery int) Model {
	s := system.New()
	b := body.New()
	b.Omega = mgl64.Vec3{0, 3, 0}
	s.AddBody(b)

	cfg := dyn.DefaultConfig()
	cfg.Dt = 0.01
	cfg.RenormEvery = renormEvery

	simulator := sim.New(s, integrators.NewEuler(), cfg)
	return NewModel("spin", simulator.Dynamics(), integrators.NewEuler(), s.PackState(), cfg)
}

func quatNorm(x dyn.State) float64 {
	sum := 0.0
	for _, v := range x[0:4] {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// The live loop honors the same renormalization cadence as the batch
// loop: with RenormEvery = 1 an explicit Euler spin keeps a unit
// quaternion, while a cadence longer than a frame lets the norm drift.
func TestAdvanceRenormCadence(t *testing.T) {
	m := spinModel(1)
	m.advance()
	if m.err != nil {
		t.Fatalf("advance: %v", m.err)
	}
	if d := math.Abs(quatNorm(m.x) - 1); d > 1e-12 {
		t.Errorf("norm drift %g with per-step renormalization", d)
	}

	m = spinModel(1000)
	m.advance()
	if m.err != nil {
		t.Fatalf("advance: %v", m.err)
	}
	if d := math.Abs(quatNorm(m.x) - 1); d < 1e-6 {
		t.Errorf("norm drift %g, expected Euler drift without renormalization", d)
	}
}

func TestResetClearsStepCount(t *testing.T) {
	m := spinModel(2)
	m.advance()
	if m.steps == 0 {
		t.Fatal("advance did not count steps")
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = next.(Model)
	if m.steps != 0 || m.t != 0 {
		t.Errorf("after reset: steps = %d, t = %g, want 0, 0", m.steps, m.t)
	}
	if n := quatNorm(m.x); math.Abs(n-1) > 1e-12 {
		t.Errorf("reset state norm %g, want 1", n)
	}
}
