// Package scene builds initial particle buffers.
package scene

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/san-kum/granule/internal/dynamo"
)

// ReferenceSize is the particle size whose mass is 1.
const ReferenceSize = 0.01

type Config struct {
	Kind  string  `yaml:"kind" json:"kind"`
	Count int     `yaml:"count" json:"count"`
	Size  float32 `yaml:"size" json:"size"`
	// Speed bounds the initial velocity magnitude.
	Speed float32 `yaml:"speed" json:"speed"`
	// Spread is the cluster sigma or the ring radius.
	Spread float32 `yaml:"spread" json:"spread"`
	Clumps int     `yaml:"clumps" json:"clumps"`
}

type builder func(rng *rand.Rand, cfg Config) []dynamo.Particle

var builders = map[string]builder{
	"random":   random,
	"cluster":  cluster,
	"lattice":  lattice,
	"two_body": twoBody,
	"ring":     ring,
}

// Kinds lists the scene kinds in sorted order.
func Kinds() []string {
	kinds := make([]string, 0, len(builders))
	for k := range builders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Known reports whether kind names a scene.
func Known(kind string) bool {
	_, ok := builders[kind]
	return ok
}

// New builds the buffer for cfg. The same seed always yields the same buffer.
func New(cfg Config, seed int64) ([]dynamo.Particle, error) {
	build, ok := builders[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownScene, cfg.Kind)
	}
	if cfg.Count <= 0 && cfg.Kind != "two_body" {
		return nil, &dynamo.ConfigError{Field: "scene.count", Reason: fmt.Sprintf("must be positive, got %d", cfg.Count)}
	}
	if cfg.Size <= 0 {
		return nil, &dynamo.ConfigError{Field: "scene.size", Reason: fmt.Sprintf("must be positive, got %g", cfg.Size)}
	}

	rng := rand.New(rand.NewSource(seed))
	ps := build(rng, cfg)
	for i := range ps {
		ps[i].Mass = 1
	}
	Resize(ps, cfg.Size)
	return ps, nil
}

// MassFor returns the mass of a particle of the given size: proportional to
// area and 1 at ReferenceSize.
func MassFor(size float32) float32 {
	r := size / ReferenceSize
	return r * r
}

// Resize sets radius and mass of every active particle for a new size.
// Massless particles keep zero mass.
func Resize(ps []dynamo.Particle, size float32) {
	m := MassFor(size)
	for i := range ps {
		ps[i].Radius = size
		if ps[i].Mass > 0 {
			ps[i].Mass = m
		}
	}
}

func randomVelocity(rng *rand.Rand, speed float32) dynamo.Vec2 {
	if speed <= 0 {
		return dynamo.Vec2{}
	}
	angle := rng.Float64() * 2 * math.Pi
	mag := speed * float32(math.Sqrt(rng.Float64()))
	s, c := math.Sincos(angle)
	return dynamo.Vec2{X: float32(c) * mag, Y: float32(s) * mag}
}

func uniform(rng *rand.Rand) float32 {
	return float32(rng.Float64()*2 - 1)
}

func random(rng *rand.Rand, cfg Config) []dynamo.Particle {
	ps := make([]dynamo.Particle, cfg.Count)
	for i := range ps {
		ps[i].Position = dynamo.Vec2{X: uniform(rng), Y: uniform(rng)}
		ps[i].Velocity = randomVelocity(rng, cfg.Speed)
	}
	return ps
}

func cluster(rng *rand.Rand, cfg Config) []dynamo.Particle {
	clumps := cfg.Clumps
	if clumps <= 0 {
		clumps = 1
	}
	sigma := float64(cfg.Spread)
	if sigma <= 0 {
		sigma = 0.1
	}
	centers := make([]dynamo.Vec2, clumps)
	drift := make([]dynamo.Vec2, clumps)
	for c := range centers {
		centers[c] = dynamo.Vec2{X: uniform(rng) * 0.7, Y: uniform(rng) * 0.7}
		drift[c] = randomVelocity(rng, cfg.Speed)
	}
	if clumps == 1 {
		centers[0] = dynamo.Vec2{}
	}

	ps := make([]dynamo.Particle, cfg.Count)
	for i := range ps {
		c := i % clumps
		off := dynamo.Vec2{X: float32(rng.NormFloat64() * sigma), Y: float32(rng.NormFloat64() * sigma)}
		ps[i].Position = dynamo.WrapVec(centers[c].Add(off))
		ps[i].Velocity = drift[c]
		ps[i].ClumpID = uint32(c)
	}
	return ps
}

func lattice(rng *rand.Rand, cfg Config) []dynamo.Particle {
	cols := int(math.Ceil(math.Sqrt(float64(cfg.Count))))
	spacing := 2.2 * cfg.Size
	if span := spacing * float32(cols); span > 2 {
		spacing = 2 / float32(cols)
	}
	origin := -spacing * float32(cols-1) / 2

	ps := make([]dynamo.Particle, cfg.Count)
	for i := range ps {
		x := origin + spacing*float32(i%cols)
		y := origin + spacing*float32(i/cols)
		ps[i].Position = dynamo.WrapVec(dynamo.Vec2{X: x, Y: y})
		ps[i].Velocity = randomVelocity(rng, cfg.Speed)
	}
	return ps
}

// twoBody places two particles on the x axis heading at each other.
func twoBody(_ *rand.Rand, cfg Config) []dynamo.Particle {
	gap := cfg.Spread
	if gap <= 0 {
		gap = 0.25
	}
	speed := cfg.Speed
	if speed <= 0 {
		speed = 0.5
	}
	return []dynamo.Particle{
		{Position: dynamo.Vec2{X: -gap}, Velocity: dynamo.Vec2{X: speed}},
		{Position: dynamo.Vec2{X: gap}, Velocity: dynamo.Vec2{X: -speed}},
	}
}

// ring lays particles on a jittered circle moving tangentially.
func ring(rng *rand.Rand, cfg Config) []dynamo.Particle {
	radius := float64(cfg.Spread)
	if radius <= 0 {
		radius = 0.5
	}
	ps := make([]dynamo.Particle, cfg.Count)
	for i := range ps {
		angle := 2 * math.Pi * float64(i) / float64(cfg.Count)
		r := radius * (1 + 0.1*rng.NormFloat64())
		s, c := math.Sincos(angle)
		ps[i].Position = dynamo.WrapVec(dynamo.Vec2{X: float32(r * c), Y: float32(r * s)})
		ps[i].Velocity = dynamo.Vec2{X: float32(-s), Y: float32(c)}.Scale(cfg.Speed)
	}
	return ps
}
