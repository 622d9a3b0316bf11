// Package tui renders a live terminal view of a running integration:
// energy trace, field profile and progress. It is a push-only sink; the
// integration loop never waits on it for anything but channel capacity.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"emfield/internal/fieldop"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// StepMsg carries one completed step into the view.
type StepMsg struct {
	Step    int
	Time    float64
	Energy  float64
	Profile []float64
}

// DoneMsg ends the stream.
type DoneMsg struct {
	Err error
}

// Relay adapts the observer contract to the bubbletea message loop. The
// field slices are copied before crossing the channel.
type Relay struct {
	ch     chan tea.Msg
	stride int
	count  int
}

// NewRelay forwards every stride-th step to the view.
func NewRelay(stride int) *Relay {
	if stride < 1 {
		stride = 1
	}
	return &Relay{ch: make(chan tea.Msg, 64), stride: stride}
}

func (r *Relay) OnStep(step int, state fieldop.FieldState, energy float64) {
	r.count++
	if r.count%r.stride != 0 {
		return
	}
	profile := make([]float64, len(state.E))
	copy(profile, state.E)
	r.ch <- StepMsg{Step: step, Time: state.Time, Energy: energy, Profile: profile}
}

// Done signals the end of the run, with its error if any.
func (r *Relay) Done(err error) {
	r.ch <- DoneMsg{Err: err}
}

// Model is the bubbletea model for the live view.
type Model struct {
	relay *Relay
	total int

	step     int
	time     float64
	energies []float64
	profile  []float64

	width  int
	height int
	done   bool
	err    error
}

func NewModel(relay *Relay, totalSteps int) Model {
	return Model{relay: relay, total: totalSteps, width: 80, height: 24}
}

func (m Model) Init() tea.Cmd {
	return m.wait()
}

func (m Model) wait() tea.Cmd {
	return func() tea.Msg { return <-m.relay.ch }
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StepMsg:
		m.step = msg.Step
		m.time = msg.Time
		m.energies = append(m.energies, msg.Energy)
		m.profile = msg.Profile
		return m, m.wait()
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(cyan.Render("emfield live"))
	b.WriteString("\n\n")

	graphWidth := m.width - 10
	if graphWidth < 20 {
		graphWidth = 20
	}

	if len(m.energies) > 1 {
		data := m.energies
		if len(data) > graphWidth {
			data = data[len(data)-graphWidth:]
		}
		b.WriteString(asciigraph.Plot(data,
			asciigraph.Height(8),
			asciigraph.Width(graphWidth),
			asciigraph.Caption("field energy"),
		))
		b.WriteString("\n\n")
	}

	if len(m.profile) > 1 {
		b.WriteString(asciigraph.Plot(downsample(m.profile, graphWidth),
			asciigraph.Height(6),
			asciigraph.Width(graphWidth),
			asciigraph.Caption("E field profile"),
		))
		b.WriteString("\n\n")
	}

	energy := 0.0
	if len(m.energies) > 0 {
		energy = m.energies[len(m.energies)-1]
	}
	status := fmt.Sprintf("step %d/%d   t=%.4f   energy=%.6e", m.step, m.total, m.time, energy)
	if m.done {
		if m.err != nil {
			status = yellow.Render(fmt.Sprintf("stopped: %v", m.err))
		} else {
			status = green.Render("run complete")
		}
	}
	b.WriteString(status)
	b.WriteString("\n")
	b.WriteString(dim.Render("q to quit"))
	b.WriteString("\n")

	return b.String()
}

func downsample(data []float64, width int) []float64 {
	if len(data) <= width || width < 2 {
		return data
	}
	out := make([]float64, width)
	for i := range out {
		out[i] = data[i*(len(data)-1)/(width-1)]
	}
	return out
}
