package viz

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/granule/internal/config"
	"github.com/san-kum/granule/internal/dynamo"
	"github.com/san-kum/granule/internal/engine"
)

func newTestModel(t *testing.T, ps []dynamo.Particle) Model {
	t.Helper()
	eng := engine.New(engine.WithWorkers(1))
	t.Cleanup(eng.Close)

	cfg := config.DefaultConfig()
	cfg.Scene.Count = len(ps)
	return NewModel(cfg, ps, eng)
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func tickMsg() tea.Msg { return TickMsg(time.Now()) }

func still() []dynamo.Particle {
	return []dynamo.Particle{
		{Position: dynamo.Vec2{X: 0, Y: 0}, Mass: 1, Radius: 0.01},
		{Position: dynamo.Vec2{X: 0.5, Y: 0.5}, Mass: 1, Radius: 0.01},
	}
}

func TestModelTickAdvances(t *testing.T) {
	m := newTestModel(t, still())
	m = update(m, tickMsg())
	m = update(m, tickMsg())
	if m.frame != 2 {
		t.Errorf("frame = %d, want 2", m.frame)
	}
	if len(m.energyHistory) != 2 {
		t.Errorf("energy history = %d entries", len(m.energyHistory))
	}
}

func TestModelPauseAndSingleStep(t *testing.T) {
	m := newTestModel(t, still())
	m = update(m, key(" "))
	m = update(m, tickMsg())
	if m.frame != 0 {
		t.Fatalf("paused model stepped to frame %d", m.frame)
	}
	m = update(m, key("."))
	if m.frame != 1 {
		t.Errorf("single step gave frame %d", m.frame)
	}
}

func TestModelReset(t *testing.T) {
	ps := []dynamo.Particle{{Position: dynamo.Vec2{X: 0.1}, Velocity: dynamo.Vec2{X: 0.3}, Mass: 1, Radius: 0.01}}
	m := newTestModel(t, ps)
	m = update(m, key("tab"))
	m = update(m, key("up"))
	for i := 0; i < 5; i++ {
		m = update(m, tickMsg())
	}
	m = update(m, key("r"))

	if m.frame != 0 || len(m.energyHistory) != 0 {
		t.Errorf("reset left frame %d, %d energy samples", m.frame, len(m.energyHistory))
	}
	if m.particles[0].Position.X != 0.1 {
		t.Errorf("position after reset = %v", m.particles[0].Position.X)
	}
	if m.cfg.Physics.EnergyDamping != m.initial.Physics.EnergyDamping {
		t.Error("reset should restore tuned parameters")
	}
}

func TestModelToggles(t *testing.T) {
	m := newTestModel(t, still())

	m = update(m, key("m"))
	if m.cfg.Pointer.Mode != "repel" {
		t.Errorf("mode = %s, want repel", m.cfg.Pointer.Mode)
	}
	m = update(m, key("m"))
	if m.cfg.Pointer.Mode != "attract" {
		t.Errorf("mode = %s, want attract", m.cfg.Pointer.Mode)
	}

	grab := m.cfg.Pointer.Grab
	m = update(m, key("g"))
	if m.cfg.Pointer.Grab == grab {
		t.Error("g should toggle grab")
	}

	for _, want := range []string{"neighbors", "speed", "off"} {
		m = update(m, key("d"))
		if m.cfg.Physics.DensityMode != want {
			t.Errorf("density mode = %s, want %s", m.cfg.Physics.DensityMode, want)
		}
	}
}

func TestModelAdjustClamps(t *testing.T) {
	m := newTestModel(t, still())
	// overlap strength
	m.selected = 3
	for i := 0; i < 100; i++ {
		m = update(m, key("up"))
	}
	if m.cfg.Physics.OverlapStrength != 1 {
		t.Errorf("overlap strength = %v, want clamp at 1", m.cfg.Physics.OverlapStrength)
	}
	if m.initial.Physics.OverlapStrength == 1 {
		t.Error("tuning must not touch the initial config")
	}
}

func TestModelMouseGrabAndThrow(t *testing.T) {
	m := newTestModel(t, still())

	// canvas cell (40, 15) is just off the world origin
	press := tea.MouseMsg{X: 40 + padLeft, Y: 15 + padTop, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	m = update(m, press)
	if !m.pressed || !m.hovering {
		t.Fatal("press on canvas should press the pointer")
	}
	if d := m.pointer.Len(); d > 0.05 {
		t.Fatalf("pointer at %v, want near origin", m.pointer)
	}

	m = update(m, tickMsg())
	if !m.particles[0].Grabbed {
		t.Fatal("particle under the pointer should be grabbed")
	}
	if m.particles[1].Grabbed {
		t.Error("distant particle grabbed")
	}

	release := press
	release.Action = tea.MouseActionRelease
	m = update(m, release)
	m = update(m, tickMsg())
	if m.particles[0].Grabbed {
		t.Error("release should free the particle")
	}
}

func TestModelMouseOffCanvas(t *testing.T) {
	m := newTestModel(t, still())
	m = update(m, tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if m.pressed {
		t.Error("press in the padding should not press the pointer")
	}
}

func TestModelResize(t *testing.T) {
	m := newTestModel(t, still())
	m = update(m, tea.WindowSizeMsg{Width: 152, Height: 42})
	if m.canvas.Width != 152-panelWidth-2*padLeft || m.canvas.Height != 40 {
		t.Errorf("canvas = %dx%d", m.canvas.Width, m.canvas.Height)
	}
	want := float32(m.canvas.Width*2) / float32(m.canvas.Height*4)
	if m.cfg.Physics.AspectRatio != want {
		t.Errorf("aspect = %v, want %v", m.cfg.Physics.AspectRatio, want)
	}
}

func TestModelView(t *testing.T) {
	m := newTestModel(t, still())
	m = update(m, tickMsg())
	m = update(m, tickMsg())
	if m.View() == "" {
		t.Error("empty view")
	}
	m = update(m, key("?"))
	if m.View() == "" {
		t.Error("empty help view")
	}
}
