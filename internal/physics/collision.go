package physics

import (
	"math"

	"github.com/san-kum/granule/internal/dynamo"
)

// Contact computes the narrow-phase impulse on particle i from every closing
// neighbor it overlaps, using the pre-step snapshot. The summed velocity
// change is stored as a constant acceleration (Δv/dt) so that one RK4 step
// delivers exactly Δv regardless of stage weights.
//
// It returns the number of active neighbors inside the interaction radius,
// which drives density damping.
func (f *Forces) Contact(i int) int {
	self := &f.src[i]
	f.impulse[i] = dynamo.Vec2{}
	if self.Mass <= 0 {
		return 0
	}

	dv, near := f.contact(i, self)
	if f.params.Dt > 0 {
		f.impulse[i] = dv.Scale(1 / f.params.Dt)
	}
	return near
}

func (f *Forces) contact(i int, self *dynamo.Particle) (dynamo.Vec2, int) {
	var dv dynamo.Vec2
	near := 0
	local2 := f.params.InteractionRadius * f.params.InteractionRadius
	invMi := 1 / self.Mass

	b := f.grid.Neighborhood(self.Position)
	for k := 0; k < b.Len(); k++ {
		for _, j := range f.grid.Cell(b.At(k)) {
			if int(j) == i {
				continue
			}
			other := &f.src[j]
			if other.Mass <= 0 {
				continue
			}
			// normal points from the neighbor toward self
			d := dynamo.MinImage(self.Position.Sub(other.Position))
			r2 := d.LenSq()
			if r2 < local2 {
				near++
			}
			combined := self.Radius + other.Radius
			if r2 >= combined*combined || r2 < minDistance*minDistance {
				continue
			}
			n := d.Scale(1 / float32(math.Sqrt(float64(r2))))
			vn := self.Velocity.Sub(other.Velocity).Dot(n)
			if vn >= 0 {
				continue
			}
			jn := Impulse(vn, self.Mass, other.Mass, f.params.CollisionDamping)
			dv = dv.AddScaled(n, jn*invMi)
		}
	}
	return dv, near
}

// Impulse is the scalar elastic impulse for a closing normal velocity vn
// (negative), scaled by damping: -2·vn / (1/m1 + 1/m2) · damping.
func Impulse(vn, m1, m2, damping float32) float32 {
	if m1 <= 0 || m2 <= 0 || vn >= 0 {
		return 0
	}
	return -2 * vn / (1/m1 + 1/m2) * damping
}
