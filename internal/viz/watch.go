package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/qrr/internal/dynamo"
	"github.com/san-kum/qrr/internal/ensemble"
)

const (
	width           = 64
	height          = 20
	historyCapacity = 2000
)

// StepMsg carries a copy of the ensemble after a step.
type StepMsg struct {
	Step   int
	Time   float64
	Gammas dynamo.Ensemble
}

// DoneMsg is sent once the simulation returns.
type DoneMsg struct {
	Result *dynamo.Result
	Err    error
}

// Feed is a dynamo.Observer that forwards throttled copies of the ensemble
// to a running Bubble Tea program. OnStep is called from the simulation
// goroutine; send must be safe for concurrent use, as tea.Program.Send is.
type Feed struct {
	send  func(tea.Msg)
	dt    float64
	every time.Duration
	last  time.Time
}

func NewFeed(send func(tea.Msg), dt float64, frameRate int) *Feed {
	f := &Feed{send: send, dt: dt}
	if frameRate > 0 {
		f.every = time.Second / time.Duration(frameRate)
	}
	return f
}

func (f *Feed) OnStep(step int, ens dynamo.Ensemble) {
	now := time.Now()
	if f.every > 0 && now.Sub(f.last) < f.every {
		return
	}
	f.last = now
	f.send(StepMsg{Step: step, Time: float64(step+1) * f.dt, Gammas: ens.Clone()})
}

// WatchModel follows a simulation and draws the evolving distribution
// against the initial one.
type WatchModel struct {
	title    string
	steps    int
	bins     int
	lo, hi   float64
	initial  *ensemble.Hist
	current  *ensemble.Hist
	summary  ensemble.Summary
	step     int
	time     float64
	means    []float64
	canvas   *Canvas
	cancel   context.CancelFunc
	frozen   bool
	logScale bool
	showHelp bool
	done     bool
	result   *dynamo.Result
	err      error
}

// NewWatchModel prepares the view for a run of the given number of steps
// starting from initial. cancel is called when the user quits.
func NewWatchModel(title string, initial dynamo.Ensemble, steps int, cancel context.CancelFunc) WatchModel {
	const bins = width * 2
	lo, hi := ensemble.Range(bins/8, initial)
	lo = math.Max(1, lo-(hi-lo)/2)
	h, _ := ensemble.Histogram(initial, bins, lo, hi)
	s := ensemble.Stats(initial)
	return WatchModel{
		title:   title,
		steps:   steps,
		bins:    bins,
		lo:      lo,
		hi:      hi,
		initial: h,
		current: h,
		summary: s,
		means:   append(make([]float64, 0, historyCapacity), s.Mean),
		canvas:  NewCanvas(width, height),
		cancel:  cancel,
	}
}

func (m WatchModel) Init() tea.Cmd { return nil }

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case " ":
			m.frozen = !m.frozen
		case "l":
			m.logScale = !m.logScale
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case StepMsg:
		if !m.frozen {
			m.observe(msg.Step+1, msg.Time, msg.Gammas)
		}
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		m.result = msg.Result
		if msg.Result != nil {
			m.observe(msg.Result.Final.Step, msg.Result.Final.Time, msg.Result.Final.Gammas)
		}
	}
	return m, nil
}

func (m *WatchModel) observe(step int, t float64, gammas dynamo.Ensemble) {
	h, err := ensemble.Histogram(gammas, m.bins, m.lo, m.hi)
	if err != nil {
		return
	}
	m.current = h
	m.summary = ensemble.Stats(gammas)
	m.step, m.time = step, t
	if len(m.means) == historyCapacity {
		copy(m.means, m.means[1:])
		m.means = m.means[:historyCapacity-1]
	}
	m.means = append(m.means, m.summary.Mean)
}

// Done reports whether the simulation has returned.
func (m WatchModel) Done() bool { return m.done }

func (m WatchModel) Err() error { return m.err }

// Result is the outcome of the run once Done reports true.
func (m WatchModel) Result() *dynamo.Result { return m.result }

func (m WatchModel) draw() {
	m.canvas.Clear()
	if m.current == nil {
		return
	}
	cur, ref := m.current.Density, m.initial.Density
	if m.logScale {
		cur, ref = logDensity(cur), logDensity(ref)
	}
	top := 0.0
	for i := range cur {
		top = math.Max(top, math.Max(cur[i], ref[i]))
	}
	m.canvas.Bars(cur, top)
	m.canvas.Profile(ref, top)
}

func logDensity(d []float64) []float64 {
	peak := 0.0
	for _, v := range d {
		peak = math.Max(peak, v)
	}
	out := make([]float64, len(d))
	if peak == 0 {
		return out
	}
	for i, v := range d {
		out[i] = math.Log1p(1e3 * v / peak)
	}
	return out
}

func (m WatchModel) View() string {
	m.draw()
	theme := CurrentTheme

	plot := lipgloss.NewStyle().Foreground(theme.Final).Render(m.canvas.String())
	axis := fmt.Sprintf("%-*.0f%*.0f", width/2, m.lo, width-width/2, m.hi)
	canvasView := canvasStyle.Render(plot + "\n" + lipgloss.NewStyle().Foreground(theme.Muted).Render(axis))

	var s strings.Builder
	s.WriteString(headerStyle.Foreground(theme.Primary).Render(strings.ToUpper(m.title)) + "\n")

	status := "RUNNING"
	switch {
	case m.err != nil:
		status = lipgloss.NewStyle().Foreground(theme.Warning).Render("FAILED")
	case m.done:
		status = "COMPLETED"
	case m.frozen:
		status = "FROZEN"
	}
	s.WriteString(status + "\n\n")

	progress := 0.0
	if m.steps > 0 {
		progress = float64(m.step) / float64(m.steps)
	}
	s.WriteString(ProgressBar(progress, 30) + "\n\n")

	if len(m.means) > 1 {
		chart := asciigraph.Plot(m.means, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("mean gamma"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Step", fmt.Sprintf("%d / %d", m.step, m.steps))
	row("Time", fmt.Sprintf("%.4g", m.time))
	row("Mean", fmt.Sprintf("%.2f", m.summary.Mean))
	row("Std", fmt.Sprintf("%.2f", m.summary.Std))
	row("Min", fmt.Sprintf("%.2f", m.summary.Min))
	row("Max", fmt.Sprintf("%.2f", m.summary.Max))
	row("At floor", fmt.Sprintf("%d", m.summary.Floor))
	if m.logScale {
		row("Axis", "log density")
	}
	if m.err != nil {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(theme.Warning).Width(36).Render(m.err.Error()) + "\n")
	}

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Freeze L:Log T:Theme\n?:Help    Q:Quit"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Freeze/resume display    ║
║  L        - Toggle log density axis  ║
║  T        - Cycle themes             ║
║  Q        - Stop and quit            ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}
