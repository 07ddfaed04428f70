package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/granule/internal/dynamo"
	"github.com/san-kum/granule/internal/engine"
	"github.com/san-kum/granule/internal/integrators"
	"github.com/san-kum/granule/internal/scene"
)

const (
	DefaultDt              = 0.01
	DefaultFrames          = 600
	DefaultCount           = 2000
	DefaultSize            = 0.01
	DefaultCellSize        = 0.05
	DefaultCapacity        = 64
	DefaultEnergyDamping   = 0.999
	DefaultCollisionDamp   = 0.9
	DefaultSoftening       = 0.01
	DefaultInteraction     = 0.04
	DefaultCursorRadius    = 0.15
	DefaultCursorStrength  = 0.5
	DefaultOverlapStrength = 0.8
	DefaultSkipRate        = 0.25
)

type Config struct {
	Seed        int64  `yaml:"seed"`
	Frames      int    `yaml:"frames"`
	Workers     int    `yaml:"workers"`
	Integrator  string `yaml:"integrator"`
	RecordEvery int    `yaml:"record_every"`

	Scene   scene.Config  `yaml:"scene"`
	Grid    GridConfig    `yaml:"grid"`
	Physics PhysicsConfig `yaml:"physics"`
	Pointer PointerConfig `yaml:"pointer"`
}

type GridConfig struct {
	CellSize float32 `yaml:"cell_size"`
	Capacity int     `yaml:"capacity"`
}

type PhysicsConfig struct {
	Dt                float32 `yaml:"dt"`
	Gravity           float32 `yaml:"gravity"`
	EnergyDamping     float32 `yaml:"energy_damping"`
	CollisionDamping  float32 `yaml:"collision_damping"`
	Softening         float32 `yaml:"softening"`
	InteractionRadius float32 `yaml:"interaction_radius"`
	AspectRatio       float32 `yaml:"aspect_ratio"`
	DensityDamping    bool    `yaml:"density_damping"`
	DensityMode       string  `yaml:"density_mode"`
	OverlapStrength   float32 `yaml:"overlap_strength"`
	OverlapIterations int     `yaml:"overlap_iterations"`
	OverlapSkipRate   float32 `yaml:"overlap_skip_rate"`
}

// PointerConfig covers both the live pointer and the scripted pointer used
// by headless runs.
type PointerConfig struct {
	Radius   float32 `yaml:"radius"`
	Strength float32 `yaml:"strength"`
	Mode     string  `yaml:"mode"`
	Grab     bool    `yaml:"grab"`

	// Script is none, orbit or drag.
	Script      string     `yaml:"script"`
	Center      [2]float32 `yaml:"center"`
	OrbitRadius float32    `yaml:"orbit_radius"`
	OrbitPeriod int        `yaml:"orbit_period"`
	Velocity    [2]float32 `yaml:"velocity"`
	GrabAt      int        `yaml:"grab_at"`
	ReleaseAt   int        `yaml:"release_at"`
}

func DefaultConfig() *Config {
	return &Config{
		Seed:        1,
		Frames:      DefaultFrames,
		Integrator:  "rk4",
		RecordEvery: 1,
		Scene: scene.Config{
			Kind:   "random",
			Count:  DefaultCount,
			Size:   DefaultSize,
			Speed:  0.2,
			Spread: 0.2,
			Clumps: 4,
		},
		Grid: GridConfig{
			CellSize: DefaultCellSize,
			Capacity: DefaultCapacity,
		},
		Physics: PhysicsConfig{
			Dt:                DefaultDt,
			EnergyDamping:     DefaultEnergyDamping,
			CollisionDamping:  DefaultCollisionDamp,
			Softening:         DefaultSoftening,
			InteractionRadius: DefaultInteraction,
			AspectRatio:       1,
			DensityMode:       "off",
			OverlapStrength:   DefaultOverlapStrength,
			OverlapIterations: engine.DefaultOverlapIterations,
			OverlapSkipRate:   DefaultSkipRate,
		},
		Pointer: PointerConfig{
			Radius:      DefaultCursorRadius,
			Strength:    DefaultCursorStrength,
			Mode:        "attract",
			Grab:        true,
			Script:      "none",
			OrbitRadius: 0.4,
			OrbitPeriod: 300,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Validate rejects settings the engine must never see. All problems are
// reported at once; each is a *dynamo.ConfigError.
func (c *Config) Validate() error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, &dynamo.ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if c.Frames <= 0 {
		bad("frames", "must be positive, got %d", c.Frames)
	}
	if _, err := integrators.New(c.Integrator); err != nil {
		bad("integrator", "unknown integrator %q", c.Integrator)
	}
	if !scene.Known(c.Scene.Kind) {
		bad("scene.kind", "unknown scene %q", c.Scene.Kind)
	}
	if c.Scene.Count <= 0 {
		bad("scene.count", "must be positive, got %d", c.Scene.Count)
	}
	if c.Scene.Size <= 0 {
		bad("scene.size", "must be positive, got %g", c.Scene.Size)
	}

	if c.Grid.CellSize <= 0 {
		bad("grid.cell_size", "must be positive, got %g", c.Grid.CellSize)
	} else if c.Grid.CellSize < 2*c.Scene.Size {
		bad("grid.cell_size", "must be at least twice the particle size (%g), got %g", c.Scene.Size, c.Grid.CellSize)
	}
	if c.Grid.Capacity <= 0 {
		bad("grid.capacity", "must be positive, got %d", c.Grid.Capacity)
	}

	p := c.Physics
	if p.Dt <= 0 {
		bad("physics.dt", "must be positive, got %g", p.Dt)
	}
	if p.Gravity < 0 {
		bad("physics.gravity", "must not be negative, got %g", p.Gravity)
	}
	if p.EnergyDamping <= 0 || p.EnergyDamping > 1 {
		bad("physics.energy_damping", "must be in (0, 1], got %g", p.EnergyDamping)
	}
	if p.CollisionDamping <= 0 || p.CollisionDamping > 1 {
		bad("physics.collision_damping", "must be in (0, 1], got %g", p.CollisionDamping)
	}
	if p.Softening < 0 {
		bad("physics.softening", "must not be negative, got %g", p.Softening)
	}
	if p.InteractionRadius < 0 || (c.Grid.CellSize > 0 && p.InteractionRadius > c.Grid.CellSize) {
		bad("physics.interaction_radius", "must be in [0, cell_size], got %g", p.InteractionRadius)
	}
	if p.AspectRatio <= 0 {
		bad("physics.aspect_ratio", "must be positive, got %g", p.AspectRatio)
	}
	if _, ok := dynamo.ParseDensityMode(p.DensityMode); !ok {
		bad("physics.density_mode", "unknown mode %q", p.DensityMode)
	}
	if p.OverlapStrength < 0 || p.OverlapStrength > 1 {
		bad("physics.overlap_strength", "must be in [0, 1], got %g", p.OverlapStrength)
	}
	if p.OverlapIterations < 0 {
		bad("physics.overlap_iterations", "must not be negative, got %d", p.OverlapIterations)
	}
	if p.OverlapSkipRate < 0 || p.OverlapSkipRate > 0.9 {
		bad("physics.overlap_skip_rate", "must be in [0, 0.9], got %g", p.OverlapSkipRate)
	}

	if c.Pointer.Radius < 0 {
		bad("pointer.radius", "must not be negative, got %g", c.Pointer.Radius)
	}
	if _, ok := dynamo.ParsePointerMode(c.Pointer.Mode); !ok {
		bad("pointer.mode", "unknown mode %q", c.Pointer.Mode)
	}
	switch c.Pointer.Script {
	case "", "none", "orbit":
	case "drag":
		if c.Pointer.ReleaseAt <= c.Pointer.GrabAt {
			bad("pointer.release_at", "must come after grab_at (%d), got %d", c.Pointer.GrabAt, c.Pointer.ReleaseAt)
		}
	default:
		bad("pointer.script", "unknown script %q", c.Pointer.Script)
	}

	return errors.Join(errs...)
}

// GridParams returns the grid layout.
func (c *Config) GridParams() dynamo.GridParams {
	return dynamo.GridParams{CellSize: c.Grid.CellSize, Capacity: c.Grid.Capacity}
}

// Params builds the per-step physics parameters for frame with the given
// pointer state. The pointer mode in ptr wins over the configured one only
// when ptr is pressed.
func (c *Config) Params(frame uint32, ptr dynamo.PointerState) dynamo.PhysicsParams {
	mode, _ := dynamo.ParsePointerMode(c.Pointer.Mode)
	density, _ := dynamo.ParseDensityMode(c.Physics.DensityMode)
	if !ptr.Pressed {
		ptr.Mode = mode
	}

	p := dynamo.PhysicsParams{
		GrabEnabled:       c.Pointer.Grab,
		ParticleCount:     uint32(c.Scene.Count),
		Gravity:           c.Physics.Gravity,
		EnergyDamping:     c.Physics.EnergyDamping,
		CollisionDamping:  c.Physics.CollisionDamping,
		Dt:                c.Physics.Dt,
		Softening:         c.Physics.Softening,
		InteractionRadius: c.Physics.InteractionRadius,
		CursorRadius:      c.Pointer.Radius,
		CursorStrength:    c.Pointer.Strength,
		ParticleSize:      c.Scene.Size,
		AspectRatio:       c.Physics.AspectRatio,
		DensityDamping:    c.Physics.DensityDamping,
		OverlapStrength:   c.Physics.OverlapStrength,
		FrameIndex:        frame,
		OverlapIterations: c.Physics.OverlapIterations,
		OverlapSkipRate:   c.Physics.OverlapSkipRate,
		DensityMode:       density,
	}
	return p.WithPointer(ptr)
}

// Input returns the scripted pointer for headless runs.
func (c *Config) Input() engine.InputSource {
	mode, _ := dynamo.ParsePointerMode(c.Pointer.Mode)
	center := dynamo.Vec2{X: c.Pointer.Center[0], Y: c.Pointer.Center[1]}
	switch c.Pointer.Script {
	case "orbit":
		return engine.OrbitInput{
			Center: center,
			Radius: c.Pointer.OrbitRadius,
			Period: c.Pointer.OrbitPeriod,
			Mode:   mode,
			Dt:     c.Physics.Dt,
		}
	case "drag":
		return engine.DragInput{
			Start:     center,
			Velocity:  dynamo.Vec2{X: c.Pointer.Velocity[0], Y: c.Pointer.Velocity[1]},
			GrabAt:    c.Pointer.GrabAt,
			ReleaseAt: c.Pointer.ReleaseAt,
			Dt:        c.Physics.Dt,
		}
	}
	return engine.NoInput{}
}

// RunConfig assembles the engine run description.
func (c *Config) RunConfig() engine.RunConfig {
	return engine.RunConfig{
		Frames:      c.Frames,
		Grid:        c.GridParams(),
		Physics:     c.Params(0, dynamo.PointerState{}),
		Input:       c.Input(),
		RecordEvery: c.RecordEvery,
	}
}

// NewIntegrator returns the configured integrator.
func (c *Config) NewIntegrator() (integrators.Integrator, error) {
	return integrators.New(c.Integrator)
}
