package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a braille pixel buffer. Each character cell also carries a
// level, the highest one plotted into it, which selects its color.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Level         [][]uint8
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Level:  make([][]uint8, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Level[i] = make([]uint8, w)
	}
	c.Clear()
	return c
}

// PixelSize returns the canvas size in sub-pixels.
func (c *Canvas) PixelSize() (int, int) { return c.Width * 2, c.Height * 4 }

// Set plots a sub-pixel at the lowest level.
func (c *Canvas) Set(x, y int) { c.Plot(x, y, 1) }

// Plot sets the sub-pixel at (x, y) and raises its cell to level.
func (c *Canvas) Plot(x, y int, level uint8) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	if level > c.Level[row][col] {
		c.Level[row][col] = level
	}
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.Level[i][j] = 0
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int, level uint8) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Plot(x0, y0, level)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawCircle outlines a circle with the midpoint algorithm.
func (c *Canvas) DrawCircle(cx, cy, r int, level uint8) {
	if r <= 0 {
		c.Plot(cx, cy, level)
		return
	}
	x, y, d := r, 0, 1-r
	for x >= y {
		for _, p := range [8][2]int{
			{x, y}, {y, x}, {-y, x}, {-x, y},
			{-x, -y}, {-y, -x}, {y, -x}, {x, -y},
		} {
			c.Plot(cx+p[0], cy+p[1], level)
		}
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Render colors each cell with styles[level-1]. Runs of equal level share one
// styled segment; cells above the last style use it.
func (c *Canvas) Render(styles []lipgloss.Style) string {
	if len(styles) == 0 {
		return c.String()
	}
	var b strings.Builder
	var run strings.Builder
	for row := range c.Grid {
		cur := c.Level[row][0]
		for col, r := range c.Grid[row] {
			lvl := c.Level[row][col]
			if lvl != cur {
				b.WriteString(paint(styles, cur, run.String()))
				run.Reset()
				cur = lvl
			}
			run.WriteRune(r)
		}
		b.WriteString(paint(styles, cur, run.String()))
		run.Reset()
		b.WriteByte('\n')
	}
	return b.String()
}

func paint(styles []lipgloss.Style, level uint8, s string) string {
	if level == 0 {
		return s
	}
	i := int(level) - 1
	if i >= len(styles) {
		i = len(styles) - 1
	}
	return styles[i].Render(s)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
