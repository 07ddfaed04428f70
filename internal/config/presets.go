package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/granule/internal/dynamo"
	"github.com/san-kum/granule/internal/scene"
)

// Presets maps a name to a function that tweaks the default configuration.
var Presets = map[string]func(*Config){
	"default": func(c *Config) {},
	"galaxy": func(c *Config) {
		c.Scene = sceneOf(c, "ring", 3000, 0.008)
		c.Scene.Spread = 0.5
		c.Scene.Speed = 0.15
		c.Physics.Gravity = 0.0004
		c.Physics.DensityDamping = true
		c.Physics.DensityMode = "neighbors"
	},
	"dense": func(c *Config) {
		c.Scene = sceneOf(c, "lattice", 6000, 0.008)
		c.Scene.Speed = 0.05
		c.Grid.CellSize = 0.04
		c.Physics.InteractionRadius = 0.03
		c.Physics.DensityDamping = true
	},
	"collide": func(c *Config) {
		c.Scene = sceneOf(c, "cluster", 1500, 0.01)
		c.Scene.Clumps = 2
		c.Scene.Spread = 0.08
		c.Scene.Speed = 0.4
		c.Physics.EnergyDamping = 1
	},
	"sandbox": func(c *Config) {
		c.Scene = sceneOf(c, "random", 800, 0.015)
		c.Scene.Speed = 0.05
		c.Grid.CellSize = 0.06
		c.Pointer.Script = "drag"
		c.Pointer.Velocity = [2]float32{0.6, 0.2}
		c.Pointer.GrabAt = 30
		c.Pointer.ReleaseAt = 120
		c.Physics.DensityMode = "speed"
	},
}

func sceneOf(c *Config, kind string, count int, size float32) scene.Config {
	s := c.Scene
	s.Kind, s.Count, s.Size = kind, count, size
	return s
}

// GetPreset returns a fresh configuration for the named preset.
func GetPreset(name string) (*Config, error) {
	apply, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownPreset, name)
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg, nil
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
