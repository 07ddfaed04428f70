package metrics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/granule/internal/dynamo"
)

// PeakSpeed is the largest particle speed seen during the run.
type PeakSpeed struct {
	name string
	peak float64
}

func NewPeakSpeed() *PeakSpeed {
	return &PeakSpeed{name: "max_speed"}
}

func (p *PeakSpeed) Name() string { return p.name }

func (p *PeakSpeed) Observe(particles []dynamo.Particle, _ dynamo.StepStats) {
	if s := MaxSpeed(particles); s > p.peak {
		p.peak = s
	}
}

func (p *PeakSpeed) Value() float64 { return p.peak }
func (p *PeakSpeed) Reset()         { p.peak = 0 }

// SpeedSpread is the mean over frames of the per-frame speed standard
// deviation, a cheap proxy for how thermalized the system is.
type SpeedSpread struct {
	name    string
	buf     []float64
	sum     float64
	samples int
}

func NewSpeedSpread() *SpeedSpread {
	return &SpeedSpread{name: "speed_stddev"}
}

func (s *SpeedSpread) Name() string { return s.name }

func (s *SpeedSpread) Observe(particles []dynamo.Particle, _ dynamo.StepStats) {
	s.buf = Speeds(particles, s.buf)
	if len(s.buf) < 2 {
		return
	}
	_, std := stat.MeanStdDev(s.buf, nil)
	s.sum += std
	s.samples++
}

func (s *SpeedSpread) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.sum / float64(s.samples)
}

func (s *SpeedSpread) Reset() {
	s.sum = 0
	s.samples = 0
}
