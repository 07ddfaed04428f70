package dynamo

import "math"

// Vec2 is a 2D vector in world units.
type Vec2 struct {
	X, Y float32
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float32) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Dot(o Vec2) float32   { return v.X*o.X + v.Y*o.Y }
func (v Vec2) LenSq() float32       { return v.X*v.X + v.Y*v.Y }
func (v Vec2) Len() float32         { return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y))) }
func (v Vec2) Perp() Vec2           { return Vec2{-v.Y, v.X} }

// AddScaled returns v + o·s.
func (v Vec2) AddScaled(o Vec2, s float32) Vec2 {
	return Vec2{v.X + o.X*s, v.Y + o.Y*s}
}

// IsFinite reports whether both components are neither NaN nor Inf.
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(float64(v.X)) && !math.IsInf(float64(v.X), 0) &&
		!math.IsNaN(float64(v.Y)) && !math.IsInf(float64(v.Y), 0)
}

// Particle is one body. The field set mirrors the buffer layout shared with
// the renderer and the settings layer.
type Particle struct {
	Position Vec2
	Velocity Vec2
	Mass     float32
	Radius   float32
	// ClumpID is advisory grouping; the engine never writes it.
	ClumpID uint32
	// Density is a coloring metric filled by the optional density pass.
	Density float32
	Grabbed bool
	// PreviousPosition holds the grab-time offset from the pointer while
	// Grabbed is set. It is meaningless otherwise.
	PreviousPosition Vec2
}

// Active reports whether the particle takes part in force and collision
// computation.
func (p *Particle) Active() bool { return p.Mass > 0 }

type PointerMode uint8

const (
	// PointerAttract grabs particles under the cursor, or pulls them toward
	// the pointer when grabbing is disabled.
	PointerAttract PointerMode = iota
	// PointerRepel pushes particles away from the pointer.
	PointerRepel
)

func (m PointerMode) String() string {
	switch m {
	case PointerAttract:
		return "attract"
	case PointerRepel:
		return "repel"
	}
	return "unknown"
}

// ParsePointerMode is the inverse of String.
func ParsePointerMode(s string) (PointerMode, bool) {
	switch s {
	case "attract", "":
		return PointerAttract, true
	case "repel":
		return PointerRepel, true
	}
	return PointerAttract, false
}

type DensityMode uint8

const (
	DensityOff DensityMode = iota
	// DensityNeighbors stores the neighbor count within the interaction radius.
	DensityNeighbors
	// DensitySpeed stores the velocity magnitude.
	DensitySpeed
)

func (m DensityMode) String() string {
	switch m {
	case DensityOff:
		return "off"
	case DensityNeighbors:
		return "neighbors"
	case DensitySpeed:
		return "speed"
	}
	return "unknown"
}

func ParseDensityMode(s string) (DensityMode, bool) {
	switch s {
	case "off", "":
		return DensityOff, true
	case "neighbors":
		return DensityNeighbors, true
	case "speed":
		return DensitySpeed, true
	}
	return DensityOff, false
}

// PointerState is what the input layer hands over ahead of each step.
type PointerState struct {
	Position Vec2
	Velocity Vec2
	Pressed  bool
	Mode     PointerMode
}

// PhysicsParams is immutable for the duration of a step.
type PhysicsParams struct {
	Pointer         Vec2
	PointerVelocity Vec2
	PointerPressed  bool
	PointerMode     PointerMode
	// GrabEnabled selects grab/throw for PointerAttract. When false the
	// pointer applies an attraction force instead.
	GrabEnabled bool

	ParticleCount     uint32
	Gravity           float32
	EnergyDamping     float32
	CollisionDamping  float32
	Dt                float32
	Softening         float32
	InteractionRadius float32
	CursorRadius      float32
	CursorStrength    float32
	ParticleSize      float32
	AspectRatio       float32
	DensityDamping    bool
	OverlapStrength   float32
	FrameIndex        uint32

	OverlapIterations int
	OverlapSkipRate   float32
	DensityMode       DensityMode
}

// WithPointer returns a copy of p carrying the given pointer state.
func (p PhysicsParams) WithPointer(s PointerState) PhysicsParams {
	p.Pointer = s.Position
	p.PointerVelocity = s.Velocity
	p.PointerPressed = s.Pressed
	p.PointerMode = s.Mode
	return p
}

const (
	// SpeedLimit is the absolute velocity cap regardless of dt.
	SpeedLimit = 5.0
	// TunnelFactor bounds per-step travel to this fraction of the particle size.
	TunnelFactor = 0.8
)

// MaxSpeed returns min(5, 0.8·size/dt).
func (p PhysicsParams) MaxSpeed() float32 {
	if p.Dt <= 0 || p.ParticleSize <= 0 {
		return SpeedLimit
	}
	return float32(math.Min(SpeedLimit, float64(TunnelFactor*p.ParticleSize/p.Dt)))
}

// CursorDistance is the aspect-corrected distance between pos and the pointer.
func (p PhysicsParams) CursorDistance(pos Vec2) float32 {
	aspect := p.AspectRatio
	if aspect <= 0 {
		aspect = 1
	}
	d := MinImage(pos.Sub(p.Pointer))
	d.X *= aspect
	return d.Len()
}

// GridParams describes the uniform grid laid over [-1, 1]².
type GridParams struct {
	CellSize float32
	Capacity int
}

// Dims returns the number of cells per axis. Cells are never narrower than
// CellSize, so anything within CellSize of a particle lies in its 3x3 block.
func (g GridParams) Dims() int {
	if g.CellSize <= 0 || g.CellSize != g.CellSize {
		return 1
	}
	n := int(math.Ceil(float64(2 / g.CellSize)))
	for n > 1 && 2/float32(n) < g.CellSize {
		n--
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Wrap maps x back into [-1, 1] on the torus.
func Wrap(x float32) float32 {
	if x != x || math.IsInf(float64(x), 0) {
		return 0
	}
	if x > 3 || x < -3 {
		x = float32(math.Mod(float64(x)+1, 2))
		if x < 0 {
			x += 2
		}
		x--
	}
	for x > 1 {
		x -= 2
	}
	for x < -1 {
		x += 2
	}
	return x
}

func WrapVec(v Vec2) Vec2 { return Vec2{Wrap(v.X), Wrap(v.Y)} }

// MinImage returns the shortest displacement equivalent to d on the torus.
func MinImage(d Vec2) Vec2 {
	if d.X > 1 {
		d.X -= 2
	} else if d.X < -1 {
		d.X += 2
	}
	if d.Y > 1 {
		d.Y -= 2
	} else if d.Y < -1 {
		d.Y += 2
	}
	return d
}
