package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/granule/internal/dynamo"
	"github.com/san-kum/granule/internal/metrics"
)

// Observer sees every frame after it was stepped. The particle slice is only
// valid during the call.
type Observer interface {
	OnFrame(frame int, particles []dynamo.Particle, stats dynamo.StepStats)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(frame int, particles []dynamo.Particle, stats dynamo.StepStats)

func (f ObserverFunc) OnFrame(frame int, particles []dynamo.Particle, stats dynamo.StepStats) {
	f(frame, particles, stats)
}

type RunConfig struct {
	Frames  int
	Grid    dynamo.GridParams
	Physics dynamo.PhysicsParams
	// Input defaults to NoInput.
	Input InputSource
	// RecordEvery samples one FrameRecord per this many frames (default 1).
	RecordEvery int
}

// FrameRecord is one sampled row of a run.
type FrameRecord struct {
	Frame     int     `csv:"frame" json:"frame"`
	Kinetic   float64 `csv:"kinetic" json:"kinetic"`
	MaxSpeed  float64 `csv:"max_speed" json:"max_speed"`
	Grabbed   int     `csv:"grabbed" json:"grabbed"`
	Released  int     `csv:"released" json:"released"`
	Dropped   int     `csv:"dropped" json:"dropped"`
	MaxLoad   int     `csv:"max_load" json:"max_load"`
	StepMicro int64   `csv:"step_us" json:"step_us"`
}

type Result struct {
	Frames     []FrameRecord
	Metrics    map[string]float64
	Final      []dynamo.Particle
	StepsTaken int
	Elapsed    time.Duration
}

// Simulator runs an Engine for a number of frames and feeds metrics and
// observers.
type Simulator struct {
	engine    *Engine
	metrics   []metrics.Metric
	observers []Observer
	log       *slog.Logger
}

func NewSimulator(e *Engine) *Simulator {
	return &Simulator{
		engine:    e,
		metrics:   make([]metrics.Metric, 0),
		observers: make([]Observer, 0),
		log:       e.log,
	}
}

func (s *Simulator) AddMetric(m metrics.Metric) { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)     { s.observers = append(s.observers, o) }
func (s *Simulator) Engine() *Engine            { return s.engine }
func (s *Simulator) Metrics() []metrics.Metric  { return s.metrics }

// Run steps a copy of particles cfg.Frames times. Cancelling ctx stops the
// run between frames and returns the partial result with ctx.Err().
func (s *Simulator) Run(ctx context.Context, particles []dynamo.Particle, cfg RunConfig) (*Result, error) {
	if err := validateRun(particles, cfg); err != nil {
		return nil, err
	}
	input := cfg.Input
	if input == nil {
		input = NoInput{}
	}
	every := cfg.RecordEvery
	if every <= 0 {
		every = 1
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	ps := make([]dynamo.Particle, len(particles))
	copy(ps, particles)

	result := &Result{
		Frames:  make([]FrameRecord, 0, cfg.Frames/every+1),
		Metrics: make(map[string]float64),
	}
	started := time.Now()
	s.log.Info("run started", "particles", len(ps), "frames", cfg.Frames, "workers", s.engine.Workers())

	var err error
	for frame := 0; frame < cfg.Frames; frame++ {
		select {
		case <-ctx.Done():
			err = ctx.Err()
		default:
		}
		if err != nil {
			break
		}

		params := cfg.Physics.WithPointer(input.Pointer(frame))
		params.FrameIndex = uint32(frame)
		stats := s.engine.Step(ps, cfg.Grid, params)
		result.StepsTaken++

		for _, m := range s.metrics {
			m.Observe(ps, stats)
		}
		for _, obs := range s.observers {
			obs.OnFrame(frame, ps, stats)
		}
		if frame%every == 0 || frame == cfg.Frames-1 {
			result.Frames = append(result.Frames, record(frame, ps, stats))
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Final = ps
	result.Elapsed = time.Since(started)
	s.log.Info("run finished", "steps", result.StepsTaken, "elapsed", result.Elapsed)
	return result, err
}

func record(frame int, ps []dynamo.Particle, stats dynamo.StepStats) FrameRecord {
	return FrameRecord{
		Frame:     frame,
		Kinetic:   metrics.Kinetic(ps),
		MaxSpeed:  metrics.MaxSpeed(ps),
		Grabbed:   stats.Grabbed,
		Released:  stats.Released,
		Dropped:   stats.Dropped,
		MaxLoad:   stats.MaxLoad,
		StepMicro: stats.Duration.Microseconds(),
	}
}

func validateRun(particles []dynamo.Particle, cfg RunConfig) error {
	if len(particles) == 0 {
		return dynamo.ErrNoParticles
	}
	if cfg.Frames <= 0 {
		return &dynamo.ConfigError{Field: "frames", Reason: fmt.Sprintf("must be positive, got %d", cfg.Frames)}
	}
	if cfg.Physics.Dt <= 0 {
		return &dynamo.ConfigError{Field: "physics.dt", Reason: fmt.Sprintf("must be positive, got %g", cfg.Physics.Dt)}
	}
	if cfg.Grid.CellSize <= 0 {
		return &dynamo.ConfigError{Field: "grid.cell_size", Reason: fmt.Sprintf("must be positive, got %g", cfg.Grid.CellSize)}
	}
	return nil
}
