package viz

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/sim"
)

const (
	canvasWidth     = 60
	canvasHeight    = 24
	historyCapacity = 300
	frameInterval   = time.Second / 30
	speedStep       = 0.25
	zoomFactor      = 1.25
	minViewRadius   = 1.0
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model draws an engine and forwards key presses to its control
// operations. The engine owns all simulation state; the model only keeps
// the last snapshot and an energy history for the chart.
type Model struct {
	engine  *sim.Engine
	presets []string
	canvas  *Canvas
	view    Viewport
	log     *slog.Logger

	snap     sim.Snapshot
	energy   []float64
	message  string
	showHelp bool

	// entry holds the body being typed while editing is set.
	editing bool
	entry   string
}

func NewModel(e *sim.Engine, viewRadius float64, log *slog.Logger) Model {
	if viewRadius <= 0 {
		viewRadius = config.DefaultViewRadius
	}
	if log == nil {
		log = slog.Default()
	}
	c := NewCanvas(canvasWidth, canvasHeight)
	return Model{
		engine:  e,
		presets: config.ListPresets(),
		canvas:  c,
		view:    Viewport{Canvas: c, Radius: viewRadius},
		log:     log,
		snap:    e.Snapshot(),
		energy:  make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.handleEntry(msg)
		}
		return m.handleKey(msg)
	case TickMsg:
		m.refresh()
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	e := m.engine
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		e.StopSim()
		return m, tea.Quit
	case " ":
		if e.IsRunning() {
			e.StopSim()
			m.message = "stopped"
		} else {
			e.StartSim()
			m.energy = m.energy[:0]
			m.message = "started"
		}
	case "+", "=":
		m.setSpeed(e.Speed() + speedStep)
	case "-", "_":
		m.setSpeed(math.Max(0, e.Speed()-speedStep))
	case "n":
		m.cycleMain(1)
	case "p":
		m.cycleMain(-1)
	case "0":
		e.ClearMainBody()
		m.message = "center of mass"
	case "a":
		m.addBody()
	case "b":
		m.editing = true
		m.entry = ""
		m.message = "body: mass radius x y vx vy"
	case "z":
		m.zoom(1 / zoomFactor)
	case "x":
		m.zoom(zoomFactor)
	case "f":
		m.fit()
	case "d":
		if n := e.BodyCount(); n > 0 {
			if err := e.DeleteBody(n - 1); err != nil {
				m.message = err.Error()
			} else {
				m.message = fmt.Sprintf("deleted body %d", n-1)
			}
		}
	case "c":
		e.ClearBodies()
		m.energy = m.energy[:0]
		m.message = "cleared"
	case "?":
		m.showHelp = !m.showHelp
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			m.loadPreset(int(key[0] - '1'))
		}
	}
	m.refresh()
	return m, nil
}

// handleEntry edits the body line started with "b". Enter creates the body,
// Esc discards it.
func (m Model) handleEntry(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.engine.StopSim()
		return m, tea.Quit
	case tea.KeyEsc:
		m.editing = false
		m.message = "cancelled"
	case tea.KeyEnter:
		m.createEntry()
	case tea.KeyBackspace:
		if n := len(m.entry); n > 0 {
			m.entry = m.entry[:n-1]
		}
	case tea.KeySpace:
		m.entry += " "
	case tea.KeyRunes:
		m.entry += string(msg.Runes)
	}
	return m, nil
}

func (m *Model) createEntry() {
	bc, err := config.ParseBody(m.entry)
	if err != nil {
		m.message = err.Error()
		return
	}
	b, err := bc.Body()
	if err != nil {
		m.message = err.Error()
		return
	}
	m.editing = false
	i := m.engine.CreateBody(b)
	m.message = fmt.Sprintf("added body %d", i)
	m.refresh()
}

// zoom scales the visible radius by f.
func (m *Model) zoom(f float64) {
	m.view.Radius = math.Max(minViewRadius, m.view.Radius*f)
	m.message = fmt.Sprintf("view %.0f", m.view.Radius)
}

// fit sets the view so every body is visible.
func (m *Model) fit() {
	r := 0.0
	for _, b := range m.engine.Bodies() {
		r = math.Max(r, r2.Norm(b.Position)+b.Radius)
	}
	if r == 0 {
		return
	}
	m.view.Radius = math.Max(minViewRadius, r*1.1)
	m.message = fmt.Sprintf("view %.0f", m.view.Radius)
}

func (m *Model) setSpeed(s float64) {
	if err := m.engine.SetSpeed(s); err != nil {
		m.message = err.Error()
		return
	}
	m.message = fmt.Sprintf("speed %.2f", s)
}

func (m *Model) cycleMain(dir int) {
	n := m.engine.BodyCount()
	if n == 0 {
		return
	}
	next := 0
	if i, ok := m.engine.MainBodyIndex(); ok {
		next = ((i+dir)%n + n) % n
	} else if dir < 0 {
		next = n - 1
	}
	m.engine.SetMainBody(next)
	m.message = fmt.Sprintf("main body %d", next)
}

// addBody places a small body on a circular orbit around the origin,
// spacing successive bodies by the golden angle.
func (m *Model) addBody() {
	snap := m.engine.Snapshot()
	r := m.view.Radius / 2
	a := float64(len(snap.Bodies)) * math.Pi * (3 - math.Sqrt(5))
	dir := r2.Vec{X: math.Cos(a), Y: math.Sin(a)}

	v := 0.0
	if snap.Diag.Mass > 0 && snap.Kappa > 0 {
		v = math.Sqrt(snap.Kappa * snap.Diag.Mass / r)
	}
	pos := r2.Scale(r, dir)
	vel := r2.Scale(v, r2.Vec{X: -dir.Y, Y: dir.X})

	b, err := body.New(5, 5, pos, vel)
	if err != nil {
		m.message = err.Error()
		return
	}
	i := m.engine.CreateBody(b)
	m.message = fmt.Sprintf("added body %d", i)
}

func (m *Model) loadPreset(i int) {
	if i >= len(m.presets) {
		return
	}
	name := m.presets[i]
	if err := config.GetPreset(name).Apply(m.engine); err != nil {
		m.log.Warn("loading preset", "preset", name, "err", err)
		m.message = err.Error()
		return
	}
	m.energy = m.energy[:0]
	m.message = "loaded " + name
}

func (m *Model) refresh() {
	m.snap = m.engine.Snapshot()
	if len(m.snap.Bodies) > 1 && !math.IsNaN(m.snap.Diag.Energy) && !math.IsInf(m.snap.Diag.Energy, 0) {
		m.energy = append(m.energy, m.snap.Diag.Energy)
		if len(m.energy) > historyCapacity {
			m.energy = m.energy[1:]
		}
	}
}

func (m *Model) draw() {
	m.canvas.Clear()
	for _, b := range m.snap.Bodies {
		m.view.Disc(b.Position, b.Radius)
		if b.Main {
			m.view.Cross(b.Position)
		}
	}
	if m.snap.MainBody < 0 && len(m.snap.Bodies) > 0 {
		m.view.Cross(r2.Vec{})
	}
}

func (m Model) View() string {
	m.draw()
	snap := m.snap

	var s strings.Builder
	s.WriteString(headerStyle.Render("GRAVSIM") + "\n")
	if snap.Running {
		s.WriteString(statusRunning.Render("RUNNING") + "\n\n")
	} else {
		s.WriteString(statusStopped.Render("STOPPED") + "\n\n")
	}

	main := "center of mass"
	if snap.MainBody >= 0 {
		main = fmt.Sprintf("#%d", snap.MainBody)
	}
	s.WriteString(row("Time", fmt.Sprintf("%.2f", snap.Diag.Time)))
	s.WriteString(row("Bodies", fmt.Sprintf("%d", len(snap.Bodies))))
	s.WriteString(row("Main", main))
	s.WriteString(row("Speed", fmt.Sprintf("%.2fx", snap.Speed)))
	s.WriteString(row("dt", fmt.Sprintf("%g", snap.Dt)))
	s.WriteString(row("View", fmt.Sprintf("%.0f", m.view.Radius)))
	s.WriteString(row("Mass", fmt.Sprintf("%.1f", snap.Diag.Mass)))
	s.WriteString(row("Energy", fmt.Sprintf("%.3g", snap.Diag.Energy)))
	s.WriteString(row("Momentum", fmt.Sprintf("%.3g", r2.Norm(snap.Diag.Momentum))))

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(26), asciigraph.Caption("Energy"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	} else {
		s.WriteString("\n" + Sparkline(m.energy, 26) + "\n")
	}

	if m.message != "" {
		s.WriteString("\n" + messageStyle.Render(m.message) + "\n")
	}
	if m.editing {
		s.WriteString(labelStyle.Render("> ") + valueStyle.Render(m.entry+"_") + "\n")
		s.WriteString("\n" + keyHint.Render("enter:create esc:cancel"))
	} else {
		s.WriteString("\n" + keyHint.Render("SP:run +/-:speed n/p:main 0:com\na:add b:body d:del c:clear\nz/x:zoom f:fit 1-9:preset\n?:help q:quit"))
	}

	out := lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(m.canvas.String()), panelStyle.Render(s.String()))
	if m.showHelp {
		return m.help() + "\n" + out
	}
	return out
}

func (m Model) help() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("PRESETS") + "\n")
	for i, name := range m.presets {
		if i >= 9 {
			break
		}
		b.WriteString(fmt.Sprintf("  %d  %s\n", i+1, name))
	}
	return b.String()
}

// Run shows the control surface for e until the user quits. The engine is
// stopped on return.
func Run(e *sim.Engine, viewRadius float64, log *slog.Logger) error {
	defer e.StopSim()
	_, err := tea.NewProgram(NewModel(e, viewRadius, log), tea.WithAltScreen()).Run()
	return err
}
