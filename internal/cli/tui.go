package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/plushie/pkg/plushie"
)

const (
	tuiFrame       = 33 * time.Millisecond
	stepsPerFrame  = 4
	sparklineWidth = 48
)

var (
	tuiLabelStyle  = lipgloss.NewStyle().Foreground(colorGray).Width(14)
	tuiSparkStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	tuiHelpStyle   = lipgloss.NewStyle().Foreground(colorDim)
	tuiPausedStyle = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	tuiDoneStyle   = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	tuiBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// =============================================================================
// relaxModel - Live relaxation monitor
// =============================================================================

type frameMsg time.Time

// relaxModel steps a plushie on every frame and shows its progress. It stops
// stepping once the plushie is relaxed or the step limit is reached.
type relaxModel struct {
	plushie *plushie.Plushie
	limit   int

	displacement float32
	tension      []float32
	paused       bool
	done         bool
	aborted      bool
	started      time.Time
	elapsed      time.Duration
}

// newRelaxModel creates the monitor. A zero limit runs until relaxed or the
// params' MaxRelaxingIterations.
func newRelaxModel(p *plushie.Plushie, limit int) relaxModel {
	if limit <= 0 {
		limit = p.Params().AutoStop.MaxRelaxingIterations
	}
	return relaxModel{plushie: p, limit: limit, started: time.Now()}
}

func frame() tea.Cmd {
	return tea.Tick(tuiFrame, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m relaxModel) Init() tea.Cmd {
	return frame()
}

func (m relaxModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.aborted = true
			return m, tea.Quit
		case "q", "esc":
			return m, tea.Quit
		case " ", "p":
			m.paused = !m.paused
		case "n":
			if m.paused && !m.done {
				m.step()
			}
		}
	case frameMsg:
		if !m.paused && !m.done {
			for range stepsPerFrame {
				if m.step() {
					break
				}
			}
			m.elapsed = time.Since(m.started)
		}
		return m, frame()
	}
	return m, nil
}

// step advances the plushie once and reports whether it is finished.
func (m *relaxModel) step() bool {
	p := m.plushie
	m.displacement = p.Step(p.Params().Timestep).Len()
	m.tension = append(m.tension, p.Tension())
	if len(m.tension) > sparklineWidth {
		m.tension = m.tension[len(m.tension)-sparklineWidth:]
	}
	m.done = p.IsRelaxed() || p.Steps() >= m.limit
	return m.done
}

func (m relaxModel) View() string {
	p := m.plushie
	var b strings.Builder

	status := StyleHighlight.Render("relaxing")
	switch {
	case m.done && p.IsRelaxed():
		status = tuiDoneStyle.Render("relaxed")
	case m.done:
		status = StyleWarning.Render("step limit reached")
	case m.paused:
		status = tuiPausedStyle.Render("paused")
	}

	row := func(label, value string) {
		b.WriteString(tuiLabelStyle.Render(label) + StyleValue.Render(value) + "\n")
	}
	b.WriteString(StyleTitle.Render("plushie") + "  " + status + "\n\n")
	row("steps", fmt.Sprintf("%d / %d", p.Steps(), m.limit))
	row("nodes", fmt.Sprintf("%d", p.NodeCount()))
	row("centroids", fmt.Sprintf("%d", len(p.Centroids())))
	row("displacement", fmt.Sprintf("%.4f", m.displacement))
	row("tension", fmt.Sprintf("%.5f (goal %.5f)", p.Tension(), p.Params().AutoStop.AcceptableTension))
	row("elapsed", m.elapsed.Round(time.Millisecond).String())
	b.WriteString(tuiLabelStyle.Render("history") + tuiSparkStyle.Render(sparkline(m.tension)) + "\n")

	help := "space pause · n step · q finish · ctrl+c abort"
	return tuiBoxStyle.Render(b.String()) + "\n" + tuiHelpStyle.Render(help) + "\n"
}

var sparkBars = []rune("▁▂▃▄▅▆▇█")

// sparkline draws values as bars scaled to the largest one.
func sparkline(values []float32) string {
	if len(values) == 0 {
		return ""
	}
	hi := values[0]
	for _, v := range values[1:] {
		hi = max(hi, v)
	}
	var b strings.Builder
	for _, v := range values {
		i := 0
		if hi > 0 {
			i = int(v / hi * float32(len(sparkBars)-1))
		}
		b.WriteRune(sparkBars[min(max(i, 0), len(sparkBars)-1)])
	}
	return b.String()
}
