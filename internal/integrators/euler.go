package integrators

import "github.com/san-kum/granule/internal/dynamo"

// Euler is semi-implicit (symplectic) Euler: velocity first, then position
// with the new velocity. Cheap, and only useful for comparison runs.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(f Field, i int, pos, vel dynamo.Vec2, dt float32) (dynamo.Vec2, dynamo.Vec2) {
	v := vel.AddScaled(f.Accel(i, pos, vel), dt)
	return pos.AddScaled(v, dt), v
}
