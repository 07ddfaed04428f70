package metrics

import (
	"github.com/san-kum/granule/internal/dynamo"
)

// Stability is the fraction of frames in which every particle stayed finite
// and below the speed threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(particles []dynamo.Particle, _ dynamo.StepStats) {
	s.samples++
	for i := range particles {
		p := &particles[i]
		if !p.Position.IsFinite() || !p.Velocity.IsFinite() ||
			float64(p.Velocity.Len()) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
