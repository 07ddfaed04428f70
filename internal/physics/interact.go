package physics

import (
	"math"

	"github.com/san-kum/granule/internal/dynamo"
)

// Transition is the grab state change applied to one particle in a step.
type Transition uint8

const (
	Free Transition = iota
	Captured
	Held
	Released
)

func (t Transition) String() string {
	switch t {
	case Free:
		return "free"
	case Captured:
		return "captured"
	case Held:
		return "held"
	case Released:
		return "released"
	}
	return "unknown"
}

// Grabbing reports whether the pointer is currently capturing particles.
func Grabbing(p dynamo.PhysicsParams) bool {
	return p.PointerPressed && p.PointerMode == dynamo.PointerAttract && p.GrabEnabled
}

// Interact applies the grab/throw state machine to one particle before
// integration:
//
//	free     -> captured  pointer grabbing and particle inside the cursor radius
//	grabbed  -> held      still grabbing and within radius; pinned to pointer+offset
//	grabbed  -> released  otherwise; velocity = pointer velocity · strength · 2
//
// Captured, held and released particles skip integration for the step.
func Interact(pt *dynamo.Particle, p dynamo.PhysicsParams) Transition {
	grabbing := Grabbing(p)
	if pt.Grabbed {
		pinned := p.Pointer.Add(pt.PreviousPosition)
		if grabbing && p.CursorDistance(pinned) <= p.CursorRadius {
			pt.Position = pinned
			pt.Velocity = dynamo.Vec2{}
			return Held
		}
		pt.Grabbed = false
		pt.Velocity = p.PointerVelocity.Scale(p.CursorStrength * 2)
		return Released
	}

	if !grabbing || pt.Mass <= 0 || p.CursorDistance(pt.Position) > p.CursorRadius {
		return Free
	}
	pt.Grabbed = true
	pt.PreviousPosition = dynamo.MinImage(pt.Position.Sub(p.Pointer))
	pt.Position = p.Pointer.Add(pt.PreviousPosition)
	pt.Velocity = dynamo.Vec2{}
	return Captured
}

// Pin restores position == pointer + offset for a grabbed particle after
// overlap resolution and wrapping may have moved it. When the particle was
// displaced the offset is re-derived from the wrapped position. Pushes that
// carry the offset past CursorRadius make the next Interact release the
// particle even while the pointer is still pressed.
func Pin(pt *dynamo.Particle, p dynamo.PhysicsParams) {
	if !pt.Grabbed {
		return
	}
	if pt.Position == p.Pointer.Add(pt.PreviousPosition) && inWorld(pt.Position) {
		return
	}
	pos := dynamo.WrapVec(pt.Position)
	pt.PreviousPosition = dynamo.Vec2{
		X: offsetTo(p.Pointer.X, pos.X),
		Y: offsetTo(p.Pointer.Y, pos.Y),
	}
	pt.Position = p.Pointer.Add(pt.PreviousPosition)
	pt.Velocity = dynamo.Vec2{}
}

// offsetTo returns d with from+d as close to to as float32 allows. When no
// exact d exists the caller still assigns from+d, so the pin holds.
func offsetTo(from, to float32) float32 {
	d := to - from
	for k := 0; k < 8 && from+d != to; k++ {
		if from+d < to {
			d = math.Nextafter32(d, float32(math.Inf(1)))
		} else {
			d = math.Nextafter32(d, float32(math.Inf(-1)))
		}
	}
	return d
}

func inWorld(v dynamo.Vec2) bool {
	return v.X >= -1 && v.X <= 1 && v.Y >= -1 && v.Y <= 1
}
