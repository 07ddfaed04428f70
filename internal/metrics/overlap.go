package metrics

import (
	"github.com/san-kum/granule/internal/dynamo"
	"github.com/san-kum/granule/internal/grid"
	"github.com/san-kum/granule/internal/physics"
)

const minMeasureCell = 0.02

// Overlap is the mean total pairwise penetration after each step. It builds
// its own grid sized from the largest radius so the engine's grid is never
// touched.
type Overlap struct {
	name    string
	pool    *dynamo.Pool
	grid    *grid.Grid
	last    float64
	sum     float64
	samples int
}

func NewOverlap() *Overlap {
	return &Overlap{name: "overlap", pool: dynamo.NewPool(1)}
}

func (o *Overlap) Name() string { return o.name }

func (o *Overlap) Observe(particles []dynamo.Particle, _ dynamo.StepStats) {
	o.last = Measure(o.pool, &o.grid, particles)
	o.sum += o.last
	o.samples++
}

// Last returns the overlap of the most recent frame.
func (o *Overlap) Last() float64 { return o.last }

func (o *Overlap) Value() float64 {
	if o.samples == 0 {
		return 0
	}
	return o.sum / float64(o.samples)
}

func (o *Overlap) Reset() {
	o.last = 0
	o.sum = 0
	o.samples = 0
}

// Measure builds (or reuses) *g with cells at least twice the largest radius
// and returns the total overlap of particles. Cells never shrink below
// minMeasureCell so tiny particles do not blow up the grid.
func Measure(pool *dynamo.Pool, g **grid.Grid, particles []dynamo.Particle) float64 {
	var rmax float32
	for i := range particles {
		if particles[i].Radius > rmax {
			rmax = particles[i].Radius
		}
	}
	if rmax <= 0 {
		return 0
	}
	size := 2 * rmax
	if size < minMeasureCell {
		size = minMeasureCell
	}
	params := dynamo.GridParams{CellSize: size, Capacity: 128}
	if *g == nil || !(*g).Matches(params) {
		*g = grid.New(params)
	}
	(*g).Build(pool, particles)
	return physics.TotalOverlap(*g, particles)
}
