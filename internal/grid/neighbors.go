package grid

import "github.com/san-kum/granule/internal/dynamo"

// Block is the set of cells around a position: the 3×3 neighborhood with
// toroidal wraparound. Grids narrower than three cells would revisit the
// same cell, so duplicates are removed.
type Block struct {
	cells [9]int32
	n     int
}

func (b *Block) Len() int     { return b.n }
func (b *Block) At(k int) int { return int(b.cells[k]) }

func (b *Block) add(c int) {
	for k := 0; k < b.n; k++ {
		if int(b.cells[k]) == c {
			return
		}
	}
	b.cells[b.n] = int32(c)
	b.n++
}

// Neighborhood returns the wrapped 3×3 block around pos. It is returned by
// value so hot loops do not allocate.
func (g *Grid) Neighborhood(pos dynamo.Vec2) Block {
	var b Block
	cx, cy := g.Coord(pos.X), g.Coord(pos.Y)
	for dy := -1; dy <= 1; dy++ {
		y := (cy + dy + g.dim) % g.dim
		for dx := -1; dx <= 1; dx++ {
			x := (cx + dx + g.dim) % g.dim
			b.add(y*g.dim + x)
		}
	}
	return b
}

// ForEachNeighbor calls fn for every index stored in the block around pos.
// The particle at pos itself is included when it was inserted.
func (g *Grid) ForEachNeighbor(pos dynamo.Vec2, fn func(j uint32)) {
	b := g.Neighborhood(pos)
	for k := 0; k < b.n; k++ {
		for _, j := range g.Cell(int(b.cells[k])) {
			fn(j)
		}
	}
}
