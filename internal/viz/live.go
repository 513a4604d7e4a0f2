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

	"github.com/san-kum/esail/internal/analysis"
	"github.com/san-kum/esail/internal/config"
	"github.com/san-kum/esail/internal/logging"
	"github.com/san-kum/esail/internal/quantity"
	"github.com/san-kum/esail/internal/sim"
	"github.com/san-kum/esail/internal/tether"
)

const (
	canvasWidth     = 60
	canvasHeight    = 24
	historyCapacity = 240
	trailCapacity   = 300

	// maxTickGap bounds the host time fed to the solver after a stall, such
	// as a suspended terminal.
	maxTickGap = 250 * time.Millisecond
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

type tunable struct {
	name string
	step float64
	unit string
}

var tunables = []tunable{
	{"rpm", 0.5, "rpm"},
	{"potential", 1000, "V"},
	{"iterations", 5, ""},
}

type Option func(*Model)

func WithLogger(l logging.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.log = l
		}
	}
}

// WithObservers attaches observers to every simulator the model builds,
// including after a reset.
func WithObservers(obs ...sim.Observer) Option {
	return func(m *Model) { m.observers = append(m.observers, obs...) }
}

func WithTheme(name string) Option {
	return func(m *Model) { m.theme = GetTheme(name) }
}

// Model runs a simulator against wall-clock time. Every tick feeds the
// measured elapsed time to the fixed-step clock, so the sail evolves at the
// same rate whatever the terminal refresh rate.
type Model struct {
	cfg       *config.Config
	sim       *sim.Simulator
	observers []sim.Observer
	log       logging.Logger

	canvas        *Canvas
	camera        *Camera
	view3D        bool
	width, height int
	theme         Theme

	running  bool
	showHelp bool
	lastTick time.Time
	fps      float64
	status   string
	selected int

	forceHistory  []float64
	radiusHistory []float64
	trail         []analysis.Point
}

// NewModel builds a live view of cfg. The configured deployment is applied
// immediately.
func NewModel(cfg *config.Config, opts ...Option) (Model, error) {
	m := Model{
		cfg:      cfg.Clone(),
		log:      logging.Noop(),
		canvas:   NewCanvas(canvasWidth, canvasHeight),
		camera:   NewCamera(),
		width:    canvasWidth,
		height:   canvasHeight,
		theme:    ThemeNight,
		running:  true,
		selected: 0,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if err := m.build(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m *Model) build() error {
	if err := m.cfg.Validate(); err != nil {
		return err
	}
	sc := m.cfg.SimConfig()
	chain, err := tether.NewChain(sc.Spacecraft, m.cfg.Simulation.Reserve)
	if err != nil {
		return err
	}
	s, err := sim.New(chain, sc, sim.WithLogger(m.log), sim.WithObservers(m.observers...))
	if err != nil {
		return err
	}
	s.Deploy(m.cfg.Simulation.Deploy)

	m.sim = s
	m.lastTick = time.Time{}
	m.status = ""
	m.forceHistory = make([]float64, 0, historyCapacity)
	m.radiusHistory = make([]float64, 0, historyCapacity)
	m.trail = make([]analysis.Point, 0, trailCapacity)
	return nil
}

// Simulator exposes the running simulator.
func (m Model) Simulator() *sim.Simulator { return m.sim }

func (m Model) Init() tea.Cmd { return tick() }

// Update handles input events and advances the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		m.advance(time.Time(msg))
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.running = !m.running
		m.lastTick = time.Time{}
	case "r":
		if err := m.build(); err != nil {
			m.status = err.Error()
		}
	case "]":
		m.sim.Deploy(1)
	case "}":
		m.sim.Deploy(m.sim.Chain().Len())
	case "[":
		m.sim.Retract(1)
	case "{":
		m.sim.Retract(m.sim.Chain().Len())
	case "tab":
		m.selected = (m.selected + 1) % len(tunables)
	case "up", "k":
		m.adjust(1)
	case "down", "j":
		m.adjust(-1)
	case "v":
		m.view3D = !m.view3D
	case "x":
		m.camera.RotateX(0.1)
	case "X":
		m.camera.RotateX(-0.1)
	case "y":
		m.camera.RotateY(0.1)
	case "Y":
		m.camera.RotateY(-0.1)
	case "+", "=":
		m.camera.ZoomIn()
	case "-", "_":
		m.camera.ZoomOut()
	case "t":
		m.theme = m.theme.next()
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// adjust moves the selected tunable by dir steps.
func (m *Model) adjust(dir float64) {
	t := tunables[m.selected]
	var err error
	if t.name == "iterations" {
		err = m.sim.SetIterations(m.sim.Iterations() + int(dir*t.step))
	} else {
		craft, _ := m.sim.Parameters()
		err = m.sim.SetParam(t.name, craft.GetParams()[t.name]+dir*t.step)
	}
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
}

func (m *Model) resize(w, h int) {
	cw := max(w-56, 20)
	ch := max(h-4, 8)
	m.width, m.height = cw, ch
	m.canvas = NewCanvas(cw, ch)
}

// advance feeds the host time since the previous tick to the simulator.
func (m *Model) advance(now time.Time) {
	prev := m.lastTick
	m.lastTick = now
	if prev.IsZero() || !m.running {
		return
	}
	elapsed := now.Sub(prev)
	if elapsed <= 0 {
		return
	}
	m.fps = 0.9*m.fps + 0.1/elapsed.Seconds()
	if elapsed > maxTickGap {
		elapsed = maxTickGap
	}

	if _, err := m.sim.Advance(elapsed.Seconds()); err != nil {
		m.running = false
		m.status = err.Error()
		m.log.Warn(context.Background(), "live view paused", logging.Err(err))
		return
	}
	m.record()
}

func (m *Model) record() {
	chain := m.sim.Chain()
	craft, _ := m.sim.Parameters()
	m.forceHistory = appendBounded(m.forceHistory, m.sim.CoulombForce()*1e6, historyCapacity)
	m.radiusHistory = appendBounded(m.radiusHistory, chain.TipRadius(craft.RotationAxis), historyCapacity)

	tip := analysis.PlaneTrack([]quantity.LengthVector{chain.Position(chain.Len() - 1)}, craft.RotationAxis)
	m.trail = appendBounded(m.trail, tip[0], trailCapacity)
}

func appendBounded[T any](s []T, v T, capacity int) []T {
	if len(s) >= capacity {
		s = append(s[:0], s[1:]...)
	}
	return append(s, v)
}

// extent is the radius that keeps the whole sail on screen.
func (m *Model) extent() float64 {
	craft, _ := m.sim.Parameters()
	r := craft.BodySize / 2
	chain := m.sim.Chain()
	for i := range chain.Len() {
		r = math.Max(r, chain.Position(i).Magnitude())
	}
	return r * 1.05
}

func (m *Model) draw() {
	m.canvas.Clear()
	if m.view3D {
		m.draw3D()
		return
	}
	m.drawTop()
}

// drawTop looks down the spin axis.
func (m *Model) drawTop() {
	chain := m.sim.Chain()
	craft, _ := m.sim.Parameters()
	vp := Fit(m.canvas, m.extent())

	body := analysis.PlaneTrack([]quantity.LengthVector{{}}, craft.RotationAxis)[0]
	bx, by := vp.Project(body.X, body.Y)
	m.canvas.DrawCircle(bx, by, vp.Dots(craft.BodySize/2))

	points := analysis.PlaneTrack(append([]quantity.LengthVector{chain.Origin()}, chain.Positions()...), craft.RotationAxis)
	for _, p := range m.trail {
		x, y := vp.Project(p.X, p.Y)
		m.canvas.Set(x, y)
	}
	for i := 1; i < len(points); i++ {
		x0, y0 := vp.Project(points[i-1].X, points[i-1].Y)
		x1, y1 := vp.Project(points[i].X, points[i].Y)
		m.canvas.DrawLine(x0, y0, x1, y1)
	}
	tip := points[len(points)-1]
	tx, ty := vp.Project(tip.X, tip.Y)
	m.canvas.FillDisc(tx, ty, 1)
}

func (m *Model) draw3D() {
	chain := m.sim.Chain()
	extent := m.extent()
	points := append([]quantity.LengthVector{chain.Origin()}, chain.Positions()...)

	var px, py int
	var prevOK bool
	for i, p := range points {
		x, y, ok := m.camera.Project(p, extent, m.canvas)
		if ok && prevOK && i > 0 {
			m.canvas.DrawLine(px, py, x, y)
		}
		px, py, prevOK = x, y, ok
	}
	if prevOK {
		m.canvas.FillDisc(px, py, 1)
	}

	craft, _ := m.sim.Parameters()
	axisEnd := quantity.Retag[quantity.Length](craft.RotationAxis.Unit()).Scale(extent * 0.3)
	x0, y0, ok0 := m.camera.Project(quantity.LengthVector{}, extent, m.canvas)
	x1, y1, ok1 := m.camera.Project(axisEnd, extent, m.canvas)
	if ok0 && ok1 {
		m.canvas.DrawLine(x0, y0, x1, y1)
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	st := newStyles(m.theme)
	m.draw()
	canvasView := st.canvas.Render(m.canvas.String())

	chain := m.sim.Chain()
	craft, _ := m.sim.Parameters()

	var s strings.Builder
	s.WriteString(st.header.Render("E-SAIL TETHER") + "\n")
	switch {
	case m.status != "" && !m.running:
		s.WriteString(st.failed.Render("HALTED") + " " + st.value.Render(m.status) + "\n\n")
	case !m.running:
		s.WriteString(st.paused.Render("PAUSED") + "\n\n")
	default:
		s.WriteString(st.running.Render("RUNNING") + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2f s", m.sim.Time()))
	row("Steps", fmt.Sprintf("%d", m.sim.Steps()))
	row("Deployed", fmt.Sprintf("%s %d/%d", st.ProgressBar(float64(chain.DeployedCount())/float64(chain.Len()), 12), chain.DeployedCount(), chain.Len()))
	row("Length", fmt.Sprintf("%.3f m", chain.DeployedLength()))
	row("Drag", fmt.Sprintf("%.3f µN", m.sim.CoulombForce()*1e6))
	row("Tip radius", fmt.Sprintf("%.3f m", chain.TipRadius(craft.RotationAxis)))
	row("Stretch", fmt.Sprintf("%.2e", chain.MaxStretch()))
	row("FPS", fmt.Sprintf("%.0f", m.fps))

	s.WriteString("\nPARAMETERS\n")
	values := map[string]float64{
		"rpm":        craft.RPM,
		"potential":  craft.TetherPotential,
		"iterations": float64(m.sim.Iterations()),
	}
	for i, t := range tunables {
		line := fmt.Sprintf("%-10s %10.1f %s", t.name, values[t.name], t.unit)
		if i == m.selected {
			s.WriteString(st.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.label.Width(0).Render(line) + "\n")
		}
	}
	if m.status != "" && m.running {
		s.WriteString(st.paused.Render(m.status) + "\n")
	}

	if len(m.forceHistory) > 1 {
		chart := asciigraph.Plot(m.radiusHistory,
			asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("tip radius (m)"))
		s.WriteString(st.graph.Render(chart) + "\n")
		chart = asciigraph.Plot(m.forceHistory,
			asciigraph.Height(3), asciigraph.Width(30), asciigraph.Caption("drag (µN)"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	s.WriteString(st.help.Render("SP:Pause R:Reset Q:Quit ?:Help\n[ ]:Reel TAB ↑↓:Tune V:View"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Reset to the config      ║
║  Q        - Quit                     ║
║  ]  [     - Deploy/Retract one       ║
║  }  {     - Deploy/Retract all       ║
║  Tab      - Cycle parameters         ║
║  Up/K     - Increase parameter       ║
║  Down/J   - Decrease parameter       ║
║  V        - Toggle top/3D view       ║
║  x y +/-  - Orbit and zoom 3D view   ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
`

// Run starts the live view on the terminal and blocks until it quits.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) error {
	m, err := NewModel(cfg, opts...)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
