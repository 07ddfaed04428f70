package physics

import (
	"math"

	"github.com/san-kum/granule/internal/dynamo"
	"github.com/san-kum/granule/internal/grid"
)

const (
	// OverlapEpsilon is the deadband below which no correction is applied.
	OverlapEpsilon = 1e-5
	// DefaultSkipRate is the share of particles left untouched per iteration.
	DefaultSkipRate = 0.25
	// MaxJitterAngle bounds the random rotation of the push direction.
	MaxJitterAngle = 0.15
	// TangentialJitter scales the sideways nudge relative to the push.
	TangentialJitter = 0.1

	pushShare       = 0.5
	pushRadiusLimit = 0.25
	pushSpeedLimit  = 0.5
	maxSkipRate     = 0.9
)

// Separate returns the positional correction for particle i in one overlap
// iteration. It reads only ps and the grid built over ps, so every particle
// of an iteration can be computed in parallel into a second buffer.
//
// All randomness derives from Hash(i, iteration, frame): the same inputs
// always produce the same correction.
func Separate(g *grid.Grid, ps []dynamo.Particle, i int, p dynamo.PhysicsParams, iteration int) dynamo.Vec2 {
	self := &ps[i]
	strength := clamp01(p.OverlapStrength)
	if self.Mass <= 0 || strength == 0 {
		return dynamo.Vec2{}
	}

	h := dynamo.Hash(uint32(i), uint32(iteration), p.FrameIndex)
	if dynamo.Unit(h) < skipRate(p.OverlapSkipRate) {
		return dynamo.Vec2{}
	}

	var sum dynamo.Vec2
	var total float32
	b := g.Neighborhood(self.Position)
	for k := 0; k < b.Len(); k++ {
		for _, j := range g.Cell(b.At(k)) {
			if int(j) == i {
				continue
			}
			other := &ps[j]
			if other.Mass <= 0 {
				continue
			}
			d := dynamo.MinImage(self.Position.Sub(other.Position))
			combined := self.Radius + other.Radius
			r2 := d.LenSq()
			if r2 >= combined*combined {
				continue
			}
			dist := float32(math.Sqrt(float64(r2)))
			var dir dynamo.Vec2
			if dist < minDistance {
				dir = pairDirection(uint32(i), j, p.FrameIndex)
			} else {
				dir = d.Scale(1 / dist)
			}
			overlap := combined - dist
			sum = sum.AddScaled(dir, overlap)
			total += overlap
		}
	}
	if total < OverlapEpsilon {
		return dynamo.Vec2{}
	}

	var dir dynamo.Vec2
	if l := sum.Len(); l > minDistance {
		dir = sum.Scale(1 / l)
	} else {
		dir = unitFromHash(dynamo.Rehash(h, 1))
	}

	push := pushShare * strength * total
	limit := pushRadiusLimit*self.Radius + pushSpeedLimit*self.Velocity.Len()*p.Dt
	if push > limit {
		push = limit
	}

	dir = dynamo.Rotate(dir, dynamo.Signed(dynamo.Rehash(h, 2))*MaxJitterAngle)
	side := dynamo.Signed(dynamo.Rehash(h, 3)) * TangentialJitter * push
	return dir.Scale(push).AddScaled(dir.Perp(), side)
}

// Resolve runs one overlap iteration over [start, end), reading cur and
// writing next. Positions are wrapped after the correction. Grabbed
// particles are pushed like any other; Pin restores their offset afterwards.
func Resolve(g *grid.Grid, cur, next []dynamo.Particle, p dynamo.PhysicsParams, iteration, start, end int) {
	for i := start; i < end; i++ {
		next[i] = cur[i]
		delta := Separate(g, cur, i, p, iteration)
		if delta == (dynamo.Vec2{}) {
			continue
		}
		next[i].Position = dynamo.WrapVec(cur[i].Position.Add(delta))
	}
}

// TotalOverlap sums the penetration depth over all unordered overlapping
// pairs found through g.
func TotalOverlap(g *grid.Grid, ps []dynamo.Particle) float64 {
	var total float64
	for i := range ps {
		self := &ps[i]
		if self.Mass <= 0 {
			continue
		}
		g.ForEachNeighbor(self.Position, func(j uint32) {
			if int(j) <= i || ps[j].Mass <= 0 {
				return
			}
			d := dynamo.MinImage(self.Position.Sub(ps[j].Position))
			combined := self.Radius + ps[j].Radius
			if r2 := d.LenSq(); r2 < combined*combined {
				total += float64(combined) - math.Sqrt(float64(r2))
			}
		})
	}
	return total
}

// pairDirection gives coincident particles opposite deterministic directions.
func pairDirection(i, j, frame uint32) dynamo.Vec2 {
	lo, hi := i, j
	if lo > hi {
		lo, hi = hi, lo
	}
	dir := unitFromHash(dynamo.Hash(lo, hi, frame))
	if i > j {
		return dir.Scale(-1)
	}
	return dir
}

func unitFromHash(h uint64) dynamo.Vec2 {
	s, c := dynamo.FastSinCos(dynamo.Unit(h) * 2 * math.Pi)
	return dynamo.Vec2{X: c, Y: s}
}

func skipRate(r float32) float32 {
	if r < 0 {
		return 0
	}
	if r > maxSkipRate {
		return maxSkipRate
	}
	return r
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
