package metrics

import "github.com/san-kum/granule/internal/dynamo"

// Dropped totals grid insertions lost to full cells over the run.
type Dropped struct {
	name  string
	total int
}

func NewDropped() *Dropped {
	return &Dropped{name: "dropped"}
}

func (d *Dropped) Name() string { return d.name }

func (d *Dropped) Observe(_ []dynamo.Particle, stats dynamo.StepStats) {
	d.total += stats.Dropped
}

func (d *Dropped) Value() float64 { return float64(d.total) }
func (d *Dropped) Reset()         { d.total = 0 }
