package physics

import (
	"github.com/san-kum/granule/internal/dynamo"
	"github.com/san-kum/granule/internal/grid"
)

// Density returns the coloring metric for particle i under mode.
func Density(g *grid.Grid, ps []dynamo.Particle, i int, p dynamo.PhysicsParams) float32 {
	switch p.DensityMode {
	case dynamo.DensityNeighbors:
		return float32(Neighbors(g, ps, i, p.InteractionRadius))
	case dynamo.DensitySpeed:
		return ps[i].Velocity.Len()
	}
	return 0
}

// Neighbors counts active particles within radius of particle i.
func Neighbors(g *grid.Grid, ps []dynamo.Particle, i int, radius float32) int {
	if radius <= 0 {
		return 0
	}
	self := ps[i].Position
	r2 := radius * radius
	n := 0
	g.ForEachNeighbor(self, func(j uint32) {
		if int(j) == i || ps[j].Mass <= 0 {
			return
		}
		if dynamo.MinImage(self.Sub(ps[j].Position)).LenSq() < r2 {
			n++
		}
	})
	return n
}
