package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/granule/internal/dynamo"
)

// spring is a = -x on both axes.
var spring = FieldFunc(func(i int, pos, vel dynamo.Vec2) dynamo.Vec2 {
	return pos.Scale(-1)
})

func run(integ Integrator, f Field, steps int, dt float32) (dynamo.Vec2, dynamo.Vec2) {
	pos := dynamo.Vec2{X: 1}
	vel := dynamo.Vec2{}
	for i := 0; i < steps; i++ {
		pos, vel = integ.Step(f, 0, pos, vel, dt)
	}
	return pos, vel
}

func TestRK4Accuracy(t *testing.T) {
	dt := float32(0.01)
	steps := 100

	pos, vel := run(NewRK4(), spring, steps, dt)

	expectedX := math.Cos(float64(steps) * float64(dt))
	expectedV := -math.Sin(float64(steps) * float64(dt))

	if math.Abs(float64(pos.X)-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", pos.X, expectedX)
	}
	if math.Abs(float64(vel.X)-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", vel.X, expectedV)
	}
	if pos.Y != 0 || vel.Y != 0 {
		t.Errorf("motion leaked into y: pos %v vel %v", pos, vel)
	}
}

func TestConstantAccelerationIsExact(t *testing.T) {
	// With a constant field every scheme must deliver exactly a·dt of
	// velocity change per step.
	a := dynamo.Vec2{X: 2, Y: -1}
	constant := FieldFunc(func(int, dynamo.Vec2, dynamo.Vec2) dynamo.Vec2 { return a })

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			integ, err := New(name)
			if err != nil {
				t.Fatal(err)
			}
			_, vel := integ.Step(constant, 0, dynamo.Vec2{}, dynamo.Vec2{}, 0.5)
			if math.Abs(float64(vel.X-1)) > 1e-6 || math.Abs(float64(vel.Y+0.5)) > 1e-6 {
				t.Errorf("velocity = %v, want {1 -0.5}", vel)
			}
		})
	}
}

func TestEnergyDrift(t *testing.T) {
	tests := []struct {
		name string
		tol  float64
	}{
		{"rk4", 1e-3},
		{"verlet", 1e-3},
		{"leapfrog", 1e-3},
		{"euler", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			integ, _ := New(tt.name)
			pos, vel := run(integ, spring, 500, 0.01)
			energy := 0.5 * float64(pos.LenSq()+vel.LenSq())
			if drift := math.Abs(energy - 0.5); drift > tt.tol {
				t.Errorf("energy drift %.6f exceeds %.6f", drift, tt.tol)
			}
		})
	}
}

func TestNewUnknown(t *testing.T) {
	_, err := New("rk45")
	if !errors.Is(err, dynamo.ErrUnknownIntegrator) {
		t.Fatalf("expected ErrUnknownIntegrator, got %v", err)
	}
}

func BenchmarkRK4(b *testing.B) {
	integ := NewRK4()
	pos, vel := dynamo.Vec2{X: 1}, dynamo.Vec2{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pos, vel = integ.Step(spring, 0, pos, vel, 0.01)
	}
}

func BenchmarkVerlet(b *testing.B) {
	integ := NewVerlet()
	pos, vel := dynamo.Vec2{X: 1}, dynamo.Vec2{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pos, vel = integ.Step(spring, 0, pos, vel, 0.01)
	}
}
