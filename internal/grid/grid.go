// Package grid builds the uniform spatial grid every force and collision
// routine queries. The grid is rebuilt from scratch each step.
package grid

import (
	"sync/atomic"

	"github.com/san-kum/granule/internal/dynamo"
)

// DefaultCapacity is the number of index slots per cell.
const DefaultCapacity = 64

// minChunk keeps tiny stages on the calling goroutine.
const minChunk = 256

// Grid stores, for each cell, a bounded list of particle indices. Counters
// are claimed atomically during Populate so any number of workers can insert
// at once. Slot order inside a cell is not deterministic.
type Grid struct {
	dim      int
	capacity int
	counts   []atomic.Uint32
	slots    []uint32
	dropped  atomic.Int64
}

// New allocates a grid for the given layout.
func New(p dynamo.GridParams) *Grid {
	capacity := p.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	dim := p.Dims()
	return &Grid{
		dim:      dim,
		capacity: capacity,
		counts:   make([]atomic.Uint32, dim*dim),
		slots:    make([]uint32, dim*dim*capacity),
	}
}

// Matches reports whether g was built for layout p.
func (g *Grid) Matches(p dynamo.GridParams) bool {
	capacity := p.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return g.dim == p.Dims() && g.capacity == capacity
}

func (g *Grid) Dim() int      { return g.dim }
func (g *Grid) Capacity() int { return g.capacity }
func (g *Grid) Cells() int    { return g.dim * g.dim }

// Clear resets every counter. It must complete before Populate begins;
// pool.Run provides that barrier.
func (g *Grid) Clear(pool *dynamo.Pool) {
	g.dropped.Store(0)
	pool.Run(len(g.counts), minChunk, func(start, end int) {
		for c := start; c < end; c++ {
			g.counts[c].Store(0)
		}
	})
}

// Populate inserts every particle, grabbed ones included, into the cell
// under its position. Insertions into a full cell are dropped.
func (g *Grid) Populate(pool *dynamo.Pool, particles []dynamo.Particle) {
	pool.Run(len(particles), minChunk, func(start, end int) {
		var lost int64
		for i := start; i < end; i++ {
			if !g.insert(uint32(i), particles[i].Position) {
				lost++
			}
		}
		if lost > 0 {
			g.dropped.Add(lost)
		}
	})
}

// Build runs Clear then Populate.
func (g *Grid) Build(pool *dynamo.Pool, particles []dynamo.Particle) {
	g.Clear(pool)
	g.Populate(pool, particles)
}

func (g *Grid) insert(idx uint32, pos dynamo.Vec2) bool {
	c := g.CellOf(pos)
	slot := g.counts[c].Add(1) - 1
	if int(slot) >= g.capacity {
		return false
	}
	g.slots[c*g.capacity+int(slot)] = idx
	return true
}

// Coord maps one world coordinate to its cell coordinate:
// floor(((x + 1) / 2) · dim), clamped to [0, dim-1].
func (g *Grid) Coord(x float32) int {
	c := int(((x + 1) / 2) * float32(g.dim))
	if x < -1 || c < 0 {
		return 0
	}
	if c >= g.dim {
		return g.dim - 1
	}
	return c
}

// CellOf returns the flat cell index for a world position.
func (g *Grid) CellOf(pos dynamo.Vec2) int {
	return g.Coord(pos.Y)*g.dim + g.Coord(pos.X)
}

// Cell returns the particle indices stored in cell c. The slice aliases the
// grid and is valid until the next Clear.
func (g *Grid) Cell(c int) []uint32 {
	n := int(g.counts[c].Load())
	if n > g.capacity {
		n = g.capacity
	}
	base := c * g.capacity
	return g.slots[base : base+n]
}

// Load returns the number of insertion attempts for cell c, which exceeds
// Capacity when the cell overflowed.
func (g *Grid) Load(c int) int {
	return int(g.counts[c].Load())
}

// Dropped returns the insertions lost since the last Clear.
func (g *Grid) Dropped() int {
	return int(g.dropped.Load())
}

// MaxLoad returns the highest insertion count over all cells.
func (g *Grid) MaxLoad() int {
	m := 0
	for c := range g.counts {
		if n := int(g.counts[c].Load()); n > m {
			m = n
		}
	}
	return m
}
