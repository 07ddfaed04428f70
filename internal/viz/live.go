package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/granule/internal/config"
	"github.com/san-kum/granule/internal/dynamo"
	"github.com/san-kum/granule/internal/engine"
	"github.com/san-kum/granule/internal/metrics"
)

const (
	defaultCols     = 80
	defaultRows     = 30
	historyCapacity = 600
	panelWidth      = 52
	// canvasStyle padding
	padLeft, padTop = 2, 1
)

type TickMsg time.Time

// tunable is a physics setting adjustable from the keyboard.
type tunable struct {
	name     string
	value    func(*config.Config) *float32
	step     float32
	min, max float32
}

var tunables = []tunable{
	{"gravity", func(c *config.Config) *float32 { return &c.Physics.Gravity }, 0.0005, 0, 0.05},
	{"damping", func(c *config.Config) *float32 { return &c.Physics.EnergyDamping }, 0.001, 0.9, 1},
	{"restitution", func(c *config.Config) *float32 { return &c.Physics.CollisionDamping }, 0.05, 0.05, 1},
	{"overlap", func(c *config.Config) *float32 { return &c.Physics.OverlapStrength }, 0.05, 0, 1},
	{"cursor", func(c *config.Config) *float32 { return &c.Pointer.Strength }, 0.05, 0, 5},
	{"radius", func(c *config.Config) *float32 { return &c.Pointer.Radius }, 0.01, 0.01, 1},
}

// Model steps the engine once per tick and draws the particle buffer. The
// mouse drives the pointer: hold the left button to grab, attract or repel.
type Model struct {
	cfg     *config.Config
	initial *config.Config
	engine  *engine.Engine

	particles []dynamo.Particle
	start     []dynamo.Particle
	frame     uint32
	last      dynamo.StepStats

	canvas  *Canvas
	theme   int
	running bool

	pointer     dynamo.Vec2
	lastPointer dynamo.Vec2
	pressed     bool
	hovering    bool

	selected      int
	energyHistory []float64
	densityPeak   float32
	showHelp      bool
}

// NewModel takes ownership of particles. cfg is copied.
func NewModel(cfg *config.Config, particles []dynamo.Particle, eng *engine.Engine) Model {
	start := make([]dynamo.Particle, len(particles))
	copy(start, particles)
	return Model{
		cfg:           cfg.Clone(),
		initial:       cfg.Clone(),
		engine:        eng,
		particles:     particles,
		start:         start,
		canvas:        NewCanvas(defaultCols, defaultRows),
		running:       true,
		energyHistory: make([]float64, 0, historyCapacity),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case ".":
			if !m.running {
				m.step()
			}
		case "r":
			m.reset()
		case "m":
			m.toggleMode()
		case "g":
			m.cfg.Pointer.Grab = !m.cfg.Pointer.Grab
		case "d":
			m.cycleDensity()
		case "tab":
			m.selected = (m.selected + 1) % len(tunables)
		case "up", "k":
			m.adjust(1)
		case "down", "j":
			m.adjust(-1)
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.MouseMsg:
		m.mouse(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) mouse(msg tea.MouseMsg) {
	col, row := msg.X-padLeft, msg.Y-padTop
	m.hovering = col >= 0 && row >= 0 && col < m.canvas.Width && row < m.canvas.Height
	if m.hovering {
		m.pointer = m.toWorld(col, row)
	}
	if msg.Button == tea.MouseButtonLeft {
		switch msg.Action {
		case tea.MouseActionPress:
			m.pressed = m.hovering
		case tea.MouseActionRelease:
			m.pressed = false
		}
	}
	if !m.hovering && msg.Action == tea.MouseActionRelease {
		m.pressed = false
	}
}

// toWorld maps the center of a character cell into [-1, 1]², +y up.
func (m *Model) toWorld(col, row int) dynamo.Vec2 {
	return dynamo.Vec2{
		X: (float32(col)+0.5)/float32(m.canvas.Width)*2 - 1,
		Y: 1 - (float32(row)+0.5)/float32(m.canvas.Height)*2,
	}
}

func (m *Model) toPixel(p dynamo.Vec2) (int, int) {
	cw, ch := m.canvas.PixelSize()
	x := int((p.X + 1) / 2 * float32(cw))
	y := int((1 - p.Y) / 2 * float32(ch))
	if x >= cw {
		x = cw - 1
	}
	if y >= ch {
		y = ch - 1
	}
	return x, y
}

func (m *Model) resize(w, h int) {
	cols, rows := w-panelWidth-2*padLeft, h-2*padTop
	if cols < 20 {
		cols = 20
	}
	if rows < 10 {
		rows = 10
	}
	m.canvas = NewCanvas(cols, rows)
	m.cfg.Physics.AspectRatio = float32(cols*2) / float32(rows*4)
}

// pointerState reports the pointer with a velocity derived from its travel
// since the previous step.
func (m *Model) pointerState() dynamo.PointerState {
	mode, _ := dynamo.ParsePointerMode(m.cfg.Pointer.Mode)
	vel := dynamo.MinImage(m.pointer.Sub(m.lastPointer)).Scale(1 / m.cfg.Physics.Dt)
	m.lastPointer = m.pointer
	return dynamo.PointerState{
		Position: m.pointer,
		Velocity: vel,
		Pressed:  m.pressed,
		Mode:     mode,
	}
}

func (m *Model) step() {
	params := m.cfg.Params(m.frame, m.pointerState())
	params.ParticleCount = uint32(len(m.particles))
	m.last = m.engine.Step(m.particles, m.cfg.GridParams(), params)
	m.frame++

	m.energyHistory = append(m.energyHistory, metrics.Kinetic(m.particles))
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
}

func (m *Model) reset() {
	copy(m.particles, m.start)
	m.frame = 0
	m.last = dynamo.StepStats{}
	m.pressed = false
	m.densityPeak = 0
	m.energyHistory = m.energyHistory[:0]
	aspect := m.cfg.Physics.AspectRatio
	m.cfg = m.initial.Clone()
	m.cfg.Physics.AspectRatio = aspect
}

func (m *Model) toggleMode() {
	if m.cfg.Pointer.Mode == dynamo.PointerRepel.String() {
		m.cfg.Pointer.Mode = dynamo.PointerAttract.String()
	} else {
		m.cfg.Pointer.Mode = dynamo.PointerRepel.String()
	}
}

func (m *Model) cycleDensity() {
	mode, _ := dynamo.ParseDensityMode(m.cfg.Physics.DensityMode)
	switch mode {
	case dynamo.DensityOff:
		mode = dynamo.DensityNeighbors
	case dynamo.DensityNeighbors:
		mode = dynamo.DensitySpeed
	default:
		mode = dynamo.DensityOff
	}
	m.cfg.Physics.DensityMode = mode.String()
	m.densityPeak = 0
}

func (m *Model) adjust(dir float32) {
	t := tunables[m.selected]
	v := t.value(m.cfg)
	*v += dir * t.step
	if *v < t.min {
		*v = t.min
	}
	if *v > t.max {
		*v = t.max
	}
}

// draw colors by the density metric when it is on and by speed otherwise.
func (m *Model) draw() {
	theme := Themes[m.theme]
	m.canvas.Clear()

	useDensity := m.cfg.Physics.DensityMode != dynamo.DensityOff.String()
	if useDensity {
		for i := range m.particles {
			if d := m.particles[i].Density; d > m.densityPeak {
				m.densityPeak = d
			}
		}
	}
	maxSpeed := m.cfg.Params(m.frame, dynamo.PointerState{}).MaxSpeed()

	for i := range m.particles {
		p := &m.particles[i]
		x, y := m.toPixel(p.Position)
		var level uint8
		switch {
		case p.Grabbed:
			level = theme.GrabbedLevel()
		case useDensity && m.densityPeak > 0:
			level = theme.RampLevel(float64(p.Density / m.densityPeak))
		default:
			level = theme.RampLevel(float64(p.Velocity.Len() / maxSpeed))
		}
		m.canvas.Plot(x, y, level)
	}

	if m.hovering {
		x, y := m.toPixel(m.pointer)
		cw, _ := m.canvas.PixelSize()
		r := int(m.cfg.Pointer.Radius / 2 * float32(cw))
		if m.pressed {
			m.canvas.DrawCircle(x, y, r, theme.PointerLevel())
		}
		m.canvas.DrawLine(x-1, y, x+1, y, theme.PointerLevel())
		m.canvas.DrawLine(x, y-1, x, y+1, theme.PointerLevel())
	}
}

func (m Model) View() string {
	m.draw()
	theme := Themes[m.theme]
	canvasView := canvasStyle.Render(m.canvas.Render(theme.Styles()))

	var s strings.Builder
	s.WriteString(headerStyle.Render(fmt.Sprintf("GRANULE %s", AnimatedSpinner(int(m.frame)))) + "\n")
	if m.running {
		s.WriteString(statusRunning.Render("RUNNING") + "\n\n")
	} else {
		s.WriteString(statusPaused.Render("PAUSED") + "\n\n")
	}

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Frame", fmt.Sprintf("%d", m.frame))
	row("Particles", fmt.Sprintf("%d", len(m.particles)))
	row("Workers", fmt.Sprintf("%d", m.engine.Workers()))
	row("Step", m.last.Duration.Round(time.Microsecond).String())
	row("Grabbed", fmt.Sprintf("%d", m.last.Grabbed))
	row("Dropped", fmt.Sprintf("%d", m.last.Dropped))
	capacity := m.cfg.Grid.Capacity
	row("Cell load", LoadBar(float64(m.last.MaxLoad)/float64(capacity), 16)+fmt.Sprintf(" %d/%d", m.last.MaxLoad, capacity))

	grab := "off"
	if m.cfg.Pointer.Grab {
		grab = "on"
	}
	row("Pointer", fmt.Sprintf("%s  grab %s", m.cfg.Pointer.Mode, grab))
	row("Color", m.cfg.Physics.DensityMode)
	row("Theme", theme.Name)

	s.WriteString("\nPARAMETERS\n")
	for i, t := range tunables {
		line := fmt.Sprintf("%-12s %.4f", t.name, *t.value(m.cfg))
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}
	s.WriteString(helpStyle.Render("─────────────────────\nSP:Pause .:Step R:Reset Q:Quit\nM:Mode G:Grab D:Color T:Theme\nTab/↑↓:Tune ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD AND MOUSE          ║
╠══════════════════════════════════════╣
║  Left drag - Grab, attract or repel  ║
║  Release   - Throw held particles    ║
║  Space     - Pause/Resume            ║
║  .         - Single step (paused)    ║
║  R         - Reset                   ║
║  M         - Attract/Repel           ║
║  G         - Toggle grab             ║
║  D         - Cycle color metric      ║
║  Tab       - Cycle parameters        ║
║  Up/Down   - Adjust parameter        ║
║  T         - Cycle themes            ║
║  Q         - Quit                    ║
╚══════════════════════════════════════╝`

// Run starts the live view and blocks until the user quits.
func Run(cfg *config.Config, particles []dynamo.Particle, eng *engine.Engine) error {
	p := tea.NewProgram(NewModel(cfg, particles, eng), tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err := p.Run()
	return err
}
