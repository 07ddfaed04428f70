package physics

import (
	"math"

	"github.com/san-kum/granule/internal/dynamo"
	"github.com/san-kum/granule/internal/grid"
)

const (
	// GravityCutoff bounds pairwise attraction in world units.
	GravityCutoff = 2.0
	// minDistance short-circuits coincident pairs instead of dividing by ~0.
	minDistance = 1e-6
	// densityDampingRate is the extra velocity loss per nearby particle.
	densityDampingRate = 0.002
	densityDampingMax  = 0.2
)

// Forces accumulates per-particle acceleration against one immutable grid
// snapshot. All RK4 stages of a step evaluate against the same snapshot.
//
// Reset must be called once per step before any Contact or Accel call.
// Afterwards Contact(i) and Accel(i, ...) may run concurrently for
// distinct i.
type Forces struct {
	grid    *grid.Grid
	src     []dynamo.Particle
	params  dynamo.PhysicsParams
	impulse []dynamo.Vec2
}

func NewForces() *Forces {
	return &Forces{}
}

// Reset binds the step snapshot and sizes per-particle scratch.
func (f *Forces) Reset(g *grid.Grid, src []dynamo.Particle, params dynamo.PhysicsParams) {
	f.grid = g
	f.src = src
	f.params = params
	if cap(f.impulse) < len(src) {
		f.impulse = make([]dynamo.Vec2, len(src))
	}
	f.impulse = f.impulse[:len(src)]
	for i := range f.impulse {
		f.impulse[i] = dynamo.Vec2{}
	}
}

// Accel returns the acceleration of particle i evaluated at (pos, vel).
// It satisfies integrators.Field.
func (f *Forces) Accel(i int, pos, vel dynamo.Vec2) dynamo.Vec2 {
	self := &f.src[i]
	if self.Mass <= 0 {
		return dynamo.Vec2{}
	}
	a := f.impulse[i]
	if f.params.Gravity > 0 {
		a = a.Add(f.gravity(i, self.Mass, pos))
	}
	return a.Add(f.pointer(pos))
}

// gravity sums softened attraction toward every neighbor in the block
// around pos. Inside the interaction radius the force is ramped up to twice
// its raw value at contact.
func (f *Forces) gravity(i int, mass float32, pos dynamo.Vec2) dynamo.Vec2 {
	var acc dynamo.Vec2
	g := f.params.Gravity
	soft2 := f.params.Softening * f.params.Softening
	local := f.params.InteractionRadius

	b := f.grid.Neighborhood(pos)
	for k := 0; k < b.Len(); k++ {
		for _, j := range f.grid.Cell(b.At(k)) {
			if int(j) == i {
				continue
			}
			other := &f.src[j]
			if other.Mass <= 0 {
				continue
			}
			d := dynamo.MinImage(other.Position.Sub(pos))
			r2 := d.LenSq()
			if r2 < minDistance*minDistance {
				continue
			}
			dist := float32(math.Sqrt(float64(r2)))
			if dist > GravityCutoff {
				continue
			}
			force := g * mass * other.Mass / (r2 + soft2)
			if local > 0 && dist < local {
				force *= 1 + (1 - dist/local)
			}
			acc = acc.AddScaled(d, force/(mass*dist))
		}
	}
	return acc
}

// pointer pulls (attract) or pushes (repel) particles inside the cursor
// radius, scaled by 1 - distance/radius. Attract mode with grabbing enabled
// is handled by Interact instead.
func (f *Forces) pointer(pos dynamo.Vec2) dynamo.Vec2 {
	p := &f.params
	if !p.PointerPressed || p.CursorRadius <= 0 {
		return dynamo.Vec2{}
	}
	if p.PointerMode == dynamo.PointerAttract && p.GrabEnabled {
		return dynamo.Vec2{}
	}
	dist := p.CursorDistance(pos)
	if dist >= p.CursorRadius || dist < minDistance {
		return dynamo.Vec2{}
	}
	toward := dynamo.MinImage(p.Pointer.Sub(pos))
	l := toward.Len()
	if l < minDistance {
		return dynamo.Vec2{}
	}
	scale := p.CursorStrength * (1 - dist/p.CursorRadius) / l
	if p.PointerMode == dynamo.PointerRepel {
		scale = -scale
	}
	return toward.Scale(scale)
}

// DensityDamping returns the extra velocity factor for a particle with
// the given number of close neighbors.
func DensityDamping(neighbors int) float32 {
	loss := densityDampingRate * float32(neighbors)
	if loss > densityDampingMax {
		loss = densityDampingMax
	}
	return 1 - loss
}

// ClampSpeed limits |v| to max.
func ClampSpeed(v dynamo.Vec2, max float32) dynamo.Vec2 {
	l2 := v.LenSq()
	if l2 <= max*max || l2 == 0 {
		return v
	}
	return v.Scale(max / float32(math.Sqrt(float64(l2))))
}
