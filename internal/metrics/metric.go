// Package metrics reduces particle buffers to scalar run diagnostics.
package metrics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/granule/internal/dynamo"
)

// Metric accumulates one scalar over the frames of a run.
type Metric interface {
	Name() string
	Observe(particles []dynamo.Particle, stats dynamo.StepStats)
	Value() float64
	Reset()
}

// Speeds writes |v| of every active particle into dst, reusing its storage.
func Speeds(particles []dynamo.Particle, dst []float64) []float64 {
	dst = dst[:0]
	for i := range particles {
		if particles[i].Mass <= 0 {
			continue
		}
		dst = append(dst, float64(particles[i].Velocity.Len()))
	}
	return dst
}

// Kinetic returns ½·Σ m·|v|² over active particles.
func Kinetic(particles []dynamo.Particle) float64 {
	var ke float64
	for i := range particles {
		p := &particles[i]
		if p.Mass <= 0 {
			continue
		}
		ke += 0.5 * float64(p.Mass) * float64(p.Velocity.LenSq())
	}
	return ke
}

// MaxSpeed returns the largest |v| over active particles.
func MaxSpeed(particles []dynamo.Particle) float64 {
	s := Speeds(particles, nil)
	if len(s) == 0 {
		return 0
	}
	return floats.Max(s)
}

// Default returns the metric set the run command reports.
func Default() []Metric {
	return []Metric{
		NewEnergy(),
		NewEnergyGrowth(),
		NewPeakSpeed(),
		NewSpeedSpread(),
		NewStability(dynamo.SpeedLimit),
		NewOverlap(),
		NewDropped(),
	}
}
