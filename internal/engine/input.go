package engine

import (
	"math"

	"github.com/san-kum/granule/internal/dynamo"
)

// InputSource supplies the pointer state ahead of each frame.
type InputSource interface {
	Pointer(frame int) dynamo.PointerState
}

// NoInput never presses the pointer.
type NoInput struct{}

func (NoInput) Pointer(int) dynamo.PointerState { return dynamo.PointerState{} }

// OrbitInput circles the pointer around Center once every Period frames,
// held down the whole time.
type OrbitInput struct {
	Center dynamo.Vec2
	Radius float32
	Period int
	Mode   dynamo.PointerMode
	Dt     float32
}

func (o OrbitInput) Pointer(frame int) dynamo.PointerState {
	period := o.Period
	if period <= 0 {
		period = 1
	}
	theta := 2 * math.Pi * float64(frame%period) / float64(period)
	s, c := math.Sincos(theta)
	state := dynamo.PointerState{
		Position: dynamo.WrapVec(o.Center.Add(dynamo.Vec2{X: o.Radius * float32(c), Y: o.Radius * float32(s)})),
		Pressed:  true,
		Mode:     o.Mode,
	}
	if o.Dt > 0 {
		omega := float32(2*math.Pi/float64(period)) / o.Dt
		state.Velocity = dynamo.Vec2{X: -float32(s), Y: float32(c)}.Scale(o.Radius * omega)
	}
	return state
}

// DragInput presses at Start on frame GrabAt, drags with constant Velocity
// and lets go on frame ReleaseAt, reporting the drag velocity on that frame
// so grabbed particles are thrown.
type DragInput struct {
	Start     dynamo.Vec2
	Velocity  dynamo.Vec2
	GrabAt    int
	ReleaseAt int
	Dt        float32
}

func (d DragInput) Pointer(frame int) dynamo.PointerState {
	switch {
	case frame < d.GrabAt:
		return dynamo.PointerState{Position: d.Start}
	case frame < d.ReleaseAt:
		return dynamo.PointerState{
			Position: d.at(frame),
			Velocity: d.Velocity,
			Pressed:  true,
		}
	case frame == d.ReleaseAt:
		return dynamo.PointerState{Position: d.at(frame), Velocity: d.Velocity}
	}
	return dynamo.PointerState{Position: d.at(d.ReleaseAt)}
}

func (d DragInput) at(frame int) dynamo.Vec2 {
	return dynamo.WrapVec(d.Start.AddScaled(d.Velocity, float32(frame-d.GrabAt)*d.Dt))
}
