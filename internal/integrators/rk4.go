package integrators

import "github.com/san-kum/granule/internal/dynamo"

// RK4 is the classical fourth-order Runge-Kutta scheme on (position,
// velocity). Every stage queries the same Field, so forces come from the
// step's grid snapshot for all four evaluations.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(f Field, i int, pos, vel dynamo.Vec2, dt float32) (dynamo.Vec2, dynamo.Vec2) {
	half := dt * 0.5

	k1x := vel
	k1v := f.Accel(i, pos, vel)

	k2x := vel.AddScaled(k1v, half)
	k2v := f.Accel(i, pos.AddScaled(k1x, half), k2x)

	k3x := vel.AddScaled(k2v, half)
	k3v := f.Accel(i, pos.AddScaled(k2x, half), k3x)

	k4x := vel.AddScaled(k3v, dt)
	k4v := f.Accel(i, pos.AddScaled(k3x, dt), k4x)

	dt6 := dt / 6
	newPos := pos.AddScaled(k1x.Add(k2x.Scale(2)).Add(k3x.Scale(2)).Add(k4x), dt6)
	newVel := vel.AddScaled(k1v.Add(k2v.Scale(2)).Add(k3v.Scale(2)).Add(k4v), dt6)
	return newPos, newVel
}
