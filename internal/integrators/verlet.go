package integrators

import "github.com/san-kum/granule/internal/dynamo"

// Verlet is velocity Verlet: the position update uses the current
// acceleration and the velocity update averages old and new.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(f Field, i int, pos, vel dynamo.Vec2, dt float32) (dynamo.Vec2, dynamo.Vec2) {
	a := f.Accel(i, pos, vel)
	newPos := pos.AddScaled(vel, dt).AddScaled(a, 0.5*dt*dt)
	aNew := f.Accel(i, newPos, vel)
	return newPos, vel.AddScaled(a.Add(aNew), 0.5*dt)
}

// Leapfrog is the kick-drift-kick form.
type Leapfrog struct{}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Step(f Field, i int, pos, vel dynamo.Vec2, dt float32) (dynamo.Vec2, dynamo.Vec2) {
	halfDt := dt * 0.5
	vHalf := vel.AddScaled(f.Accel(i, pos, vel), halfDt)
	newPos := pos.AddScaled(vHalf, dt)
	return newPos, vHalf.AddScaled(f.Accel(i, newPos, vHalf), halfDt)
}
