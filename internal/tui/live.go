// Package tui provides a live terminal view of a running simulation:
// styled run statistics next to scrolling traces of a body coordinate
// and the constraint residual norm.
package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/floats"

	"github.com/hjelmeland/mbdsim/internal/dyn"
	"github.com/hjelmeland/mbdsim/internal/sim"
)

const historyCapacity = 120

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type tickMsg time.Time

type Model struct {
	name       string
	dynamics   *sim.Dynamics
	integrator dyn.Integrator
	cfg        dyn.Config

	x0 dyn.State
	x  dyn.State
	t  float64

	stepsPerFrame int
	steps         int
	running       bool
	err           error

	posHistory      []float64
	residualHistory []float64
}

func NewModel(name string, dynamics *sim.Dynamics, integrator dyn.Integrator, x0 dyn.State, cfg dyn.Config) Model {
	stepsPerFrame := int(1.0 / 30 / cfg.Dt)
	if stepsPerFrame < 1 {
		stepsPerFrame = 1
	}
	return Model{
		name:          name,
		dynamics:      dynamics,
		integrator:    integrator,
		cfg:           cfg,
		x0:            x0.Clone(),
		x:             x0.Clone(),
		stepsPerFrame: stepsPerFrame,
		running:       true,
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.x = m.x0.Clone()
			m.t = 0
			m.steps = 0
			m.err = nil
			m.posHistory = nil
			m.residualHistory = nil
			m.running = true
		}
		return m, nil
	case tickMsg:
		if m.running && m.err == nil {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance() {
	for i := 0; i < m.stepsPerFrame; i++ {
		m.dynamics.BeginStep()
		newX, err := m.integrator.Step(m.dynamics, m.x, m.t, m.cfg.Dt)
		if err != nil {
			m.err = err
			m.running = false
			return
		}
		m.x = newX
		m.t += m.cfg.Dt
		m.steps++
		if m.cfg.RenormEvery > 0 && m.steps%m.cfg.RenormEvery == 0 {
			sim.Renormalize(m.x)
		}
	}

	m.pushHistory()
}

func (m *Model) pushHistory() {
	m.posHistory = push(m.posHistory, sim.BodyPos(m.x, 0).Z())
	g := m.dynamics.Residual(m.x, m.t)
	res := 0.0
	if len(g) > 0 {
		res = floats.Norm(g, 2)
	}
	m.residualHistory = push(m.residualHistory, res)
}

func push(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

func (m Model) View() string {
	header := headerStyle.Render(fmt.Sprintf("mbdsim live — %s", m.name))

	stats := statsStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		row("time", fmt.Sprintf("%8.3f s", m.t)),
		row("dt", fmt.Sprintf("%8.5f s", m.cfg.Dt)),
		row("residual", fmt.Sprintf("%10.3e", last(m.residualHistory))),
		row("body0 z", fmt.Sprintf("%10.4f", last(m.posHistory))),
	))

	var graphs string
	if len(m.posHistory) > 1 {
		graphs = graphStyle.Render(
			asciigraph.Plot(m.posHistory, asciigraph.Height(8), asciigraph.Width(60), asciigraph.Caption("body 0 height")) +
				"\n\n" +
				asciigraph.Plot(m.residualHistory, asciigraph.Height(6), asciigraph.Width(60), asciigraph.Caption("constraint residual ‖g‖")),
		)
	}

	out := lipgloss.JoinVertical(lipgloss.Left, header, stats, graphs)
	if m.err != nil {
		out = lipgloss.JoinVertical(lipgloss.Left, out, errorStyle.Render("error: "+m.err.Error()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, out,
		helpStyle.Render("space pause · r reset · q quit"))
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

func last(h []float64) float64 {
	if len(h) == 0 {
		return 0
	}
	return h[len(h)-1]
}

// Run starts the live view and blocks until the user quits.
func Run(name string, dynamics *sim.Dynamics, integrator dyn.Integrator, x0 dyn.State, cfg dyn.Config) error {
	p := tea.NewProgram(NewModel(name, dynamics, integrator, x0, cfg))
	_, err := p.Run()
	return err
}
