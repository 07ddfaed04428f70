package metrics

import (
	"math"

	"github.com/san-kum/granule/internal/dynamo"
)

// Energy is the mean kinetic energy over observed frames.
type Energy struct {
	name    string
	samples int
	total   float64
}

func NewEnergy() *Energy {
	return &Energy{name: "kinetic_energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(particles []dynamo.Particle, _ dynamo.StepStats) {
	e.total += Kinetic(particles)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Reset() {
	e.total = 0
	e.samples = 0
}

// EnergyGrowth is the largest ratio of kinetic energy to the first observed
// frame. Damped runs stay at or below 1; values far above flag instability.
type EnergyGrowth struct {
	name    string
	initial float64
	peak    float64
	samples int
}

func NewEnergyGrowth() *EnergyGrowth {
	return &EnergyGrowth{name: "energy_growth"}
}

func (e *EnergyGrowth) Name() string { return e.name }

func (e *EnergyGrowth) Observe(particles []dynamo.Particle, _ dynamo.StepStats) {
	ke := Kinetic(particles)
	if e.samples == 0 {
		e.initial = ke
	}
	e.samples++
	if e.initial > 0 {
		e.peak = math.Max(e.peak, ke/e.initial)
	}
}

func (e *EnergyGrowth) Value() float64 {
	return e.peak
}

func (e *EnergyGrowth) Reset() {
	e.initial = 0
	e.peak = 0
	e.samples = 0
}
