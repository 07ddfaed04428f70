package dynamo

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"
)

func TestVec2_IsFinite(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	tests := []struct {
		name  string
		v     Vec2
		valid bool
	}{
		{"zero", Vec2{}, true},
		{"normal", Vec2{1, -2}, true},
		{"NaN x", Vec2{nan, 0}, false},
		{"+Inf y", Vec2{0, inf}, false},
		{"-Inf x", Vec2{-inf, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsFinite(); got != tt.valid {
				t.Errorf("IsFinite() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestVec2_Arithmetic(t *testing.T) {
	a := Vec2{1, 2}
	b := Vec2{3, 4}

	if got := a.Add(b); got != (Vec2{4, 6}) {
		t.Errorf("Add failed: got %v", got)
	}
	if got := b.Sub(a); got != (Vec2{2, 2}) {
		t.Errorf("Sub failed: got %v", got)
	}
	if got := a.Scale(2); got != (Vec2{2, 4}) {
		t.Errorf("Scale failed: got %v", got)
	}
	if got := a.Dot(b); got != 11 {
		t.Errorf("Dot failed: got %v", got)
	}
	if got := b.Len(); got != 5 {
		t.Errorf("Len failed: got %v", got)
	}
	if got := a.Perp().Dot(a); got != 0 {
		t.Errorf("Perp not orthogonal: %v", got)
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		in, want float32
	}{
		{0, 0},
		{1, 1},
		{-1, -1},
		{1.25, -0.75},
		{-1.5, 0.5},
		{2.5, 0.5},
		{-7.5, 0.5},
		{float32(math.NaN()), 0},
		{float32(math.Inf(1)), 0},
	}

	for _, tt := range tests {
		got := Wrap(tt.in)
		if math.Abs(float64(got-tt.want)) > 1e-5 {
			t.Errorf("Wrap(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if got < -1 || got > 1 {
			t.Errorf("Wrap(%v) = %v escapes [-1, 1]", tt.in, got)
		}
	}
}

func TestMinImage(t *testing.T) {
	d := MinImage(Vec2{1.9, -1.9})
	if math.Abs(float64(d.X+0.1)) > 1e-5 || math.Abs(float64(d.Y-0.1)) > 1e-5 {
		t.Errorf("MinImage across seam = %v, want (-0.1, 0.1)", d)
	}
	if got := MinImage(Vec2{0.3, -0.2}); got != (Vec2{0.3, -0.2}) {
		t.Errorf("MinImage changed a short displacement: %v", got)
	}
}

func TestMaxSpeed(t *testing.T) {
	tests := []struct {
		name string
		p    PhysicsParams
		want float32
	}{
		{"tunnel bound", PhysicsParams{Dt: 0.01, ParticleSize: 0.01}, 0.8},
		{"absolute cap", PhysicsParams{Dt: 0.0001, ParticleSize: 0.05}, 5},
		{"zero dt", PhysicsParams{Dt: 0, ParticleSize: 0.01}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.MaxSpeed(); math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Errorf("MaxSpeed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGridParams_Dims(t *testing.T) {
	tests := []struct {
		cell float32
		want int
	}{
		{0.05, 40},
		{0.1, 20},
		{0.03, 66},
		{0.06, 33},
		{0.3, 6},
		{2, 1},
		{5, 1},
		{0, 1},
	}
	for _, tt := range tests {
		if got := (GridParams{CellSize: tt.cell}).Dims(); got != tt.want {
			t.Errorf("Dims(cell=%v) = %d, want %d", tt.cell, got, tt.want)
		}
	}
}

func TestCursorDistanceAspect(t *testing.T) {
	p := PhysicsParams{Pointer: Vec2{0, 0}, AspectRatio: 2}
	if got := p.CursorDistance(Vec2{0.1, 0}); math.Abs(float64(got-0.2)) > 1e-6 {
		t.Errorf("aspect-corrected distance = %v, want 0.2", got)
	}
	if got := p.CursorDistance(Vec2{0, 0.1}); math.Abs(float64(got-0.1)) > 1e-6 {
		t.Errorf("vertical distance = %v, want 0.1", got)
	}
}

func TestConfigError(t *testing.T) {
	err := error(&ConfigError{Field: "physics.dt", Reason: "must be positive"})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Error("ConfigError should unwrap to ErrInvalidConfig")
	}
	want := "dynamo: invalid configuration: physics.dt must be positive"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestPoolCoversRange(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	for _, n := range []int{0, 1, 7, 64, 1000} {
		hits := make([]int32, n)
		p.Run(n, 8, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, h)
			}
		}
	}
}

func TestPoolIsBarrier(t *testing.T) {
	p := NewPool(3)
	defer p.Close()

	var done atomic.Int64
	p.Run(300, 1, func(start, end int) {
		done.Add(int64(end - start))
	})
	if done.Load() != 300 {
		t.Errorf("Run returned before all work finished: %d/300", done.Load())
	}
}

func TestHashDeterministic(t *testing.T) {
	if Hash(7, 1, 42) != Hash(7, 1, 42) {
		t.Fatal("Hash is not deterministic")
	}
	seen := map[uint64]bool{}
	for i := uint32(0); i < 100; i++ {
		for it := uint32(0); it < 3; it++ {
			seen[Hash(i, it, 9)] = true
		}
	}
	if len(seen) != 300 {
		t.Errorf("expected 300 distinct hashes, got %d", len(seen))
	}
}

func TestUnitRange(t *testing.T) {
	var sum float64
	const n = 10000
	for i := uint32(0); i < n; i++ {
		u := Unit(Hash(i, 0, 0))
		if u < 0 || u >= 1 {
			t.Fatalf("Unit out of range: %v", u)
		}
		sum += float64(u)
	}
	if mean := sum / n; math.Abs(mean-0.5) > 0.02 {
		t.Errorf("Unit mean = %.4f, want ~0.5", mean)
	}
}

func TestTrigTable(t *testing.T) {
	for _, x := range []float32{0, 0.5, 1, 3, -2, 10} {
		s, c := FastSinCos(x)
		if math.Abs(float64(s)-math.Sin(float64(x))) > 1e-3 {
			t.Errorf("sin(%v) = %v", x, s)
		}
		if math.Abs(float64(c)-math.Cos(float64(x))) > 1e-3 {
			t.Errorf("cos(%v) = %v", x, c)
		}
	}
	tbl := NewTrigTable(1024)
	for _, x := range []float32{0.25, -1.5, 7} {
		if got := tbl.Sin(x); math.Abs(float64(got)-math.Sin(float64(x))) > 1e-4 {
			t.Errorf("Sin(%v) = %v", x, got)
		}
		if got := tbl.Cos(x); math.Abs(float64(got)-math.Cos(float64(x))) > 1e-4 {
			t.Errorf("Cos(%v) = %v", x, got)
		}
	}
	r := Rotate(Vec2{1, 0}, math.Pi/2)
	if math.Abs(float64(r.X)) > 1e-3 || math.Abs(float64(r.Y-1)) > 1e-3 {
		t.Errorf("Rotate((1,0), pi/2) = %v", r)
	}
}

func TestStepStatsLogValue(t *testing.T) {
	s := StepStats{Frame: 3, Particles: 10, Dropped: 2}
	v := s.LogValue()
	if len(v.Group()) != 7+int(NumStages) {
		t.Errorf("unexpected attr count %d", len(v.Group()))
	}
}
