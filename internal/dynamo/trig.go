package dynamo

import "math"

// TrigTable provides precomputed sin/cos values for fast lookup.
// Uses linear interpolation for values between table entries.
type TrigTable struct {
	sin []float32
	cos []float32
	n   int
}

// DefaultTrigTable has 4096 entries, about 0.0015 rad resolution.
var DefaultTrigTable = NewTrigTable(4096)

// NewTrigTable creates a precomputed trig lookup table
func NewTrigTable(n int) *TrigTable {
	t := &TrigTable{
		sin: make([]float32, n),
		cos: make([]float32, n),
		n:   n,
	}

	for i := 0; i < n; i++ {
		angle := float64(i) * 2 * math.Pi / float64(n)
		t.sin[i] = float32(math.Sin(angle))
		t.cos[i] = float32(math.Cos(angle))
	}

	return t
}

func (t *TrigTable) lookup(x float32) (i0, i1 int, frac float32) {
	const twoPi = 2 * math.Pi
	v := math.Mod(float64(x), twoPi)
	if v < 0 {
		v += twoPi
	}

	idx := v * float64(t.n) / twoPi
	i := int(idx)
	frac = float32(idx - float64(i))
	return i % t.n, (i + 1) % t.n, frac
}

// Sin returns approximate sin using table lookup with interpolation
func (t *TrigTable) Sin(x float32) float32 {
	i0, i1, frac := t.lookup(x)
	return t.sin[i0]*(1-frac) + t.sin[i1]*frac
}

// Cos returns approximate cos using table lookup with interpolation
func (t *TrigTable) Cos(x float32) float32 {
	i0, i1, frac := t.lookup(x)
	return t.cos[i0]*(1-frac) + t.cos[i1]*frac
}

// SinCos returns both sin and cos with a single lookup
func (t *TrigTable) SinCos(x float32) (sin, cos float32) {
	i0, i1, frac := t.lookup(x)
	sin = t.sin[i0]*(1-frac) + t.sin[i1]*frac
	cos = t.cos[i0]*(1-frac) + t.cos[i1]*frac
	return
}

// Rotate turns v by angle radians using the default table.
func Rotate(v Vec2, angle float32) Vec2 {
	s, c := DefaultTrigTable.SinCos(angle)
	return Vec2{v.X*c - v.Y*s, v.X*s + v.Y*c}
}

// FastSinCos uses the default table
func FastSinCos(x float32) (float32, float32) {
	return DefaultTrigTable.SinCos(x)
}
