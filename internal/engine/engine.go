// Package engine drives one frame of the particle pipeline:
//
//	interact -> grid clear -> grid populate -> forces + integrate
//	         -> overlap iterations -> pin/density -> copy back
//
// Each stage runs on a persistent worker pool and completes before the next
// begins. Within a stage every particle writes only its own slot.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/san-kum/granule/internal/dynamo"
	"github.com/san-kum/granule/internal/grid"
	"github.com/san-kum/granule/internal/integrators"
	"github.com/san-kum/granule/internal/physics"
)

// minChunk is the smallest per-worker slice of particles.
const minChunk = 128

// DefaultOverlapIterations is used when PhysicsParams leaves it at zero.
const DefaultOverlapIterations = 3

// LevelTrace sits below slog.LevelDebug and enables per-step stats records.
const LevelTrace = slog.LevelDebug - 4

type Option func(*Engine)

// WithWorkers sets the pool size. Zero or less uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

func WithIntegrator(integ integrators.Integrator) Option {
	return func(e *Engine) { e.integ = integ }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// Engine owns every buffer the pipeline needs so steady-state steps do not
// allocate. It is not safe for concurrent Step calls.
type Engine struct {
	workers int
	pool    *dynamo.Pool
	integ   integrators.Integrator
	log     *slog.Logger

	grid        *grid.Grid
	forces      *physics.Forces
	front, back []dynamo.Particle
	transitions []physics.Transition
}

func New(opts ...Option) *Engine {
	e := &Engine{
		integ:  integrators.NewRK4(),
		log:    slog.Default(),
		forces: physics.NewForces(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.pool = dynamo.NewPool(e.workers)
	return e
}

func (e *Engine) Workers() int { return e.pool.Workers() }

// Close stops the worker pool.
func (e *Engine) Close() {
	e.pool.Close()
}

func (e *Engine) ensure(n int, gp dynamo.GridParams) {
	if e.grid == nil || !e.grid.Matches(gp) {
		e.grid = grid.New(gp)
	}
	if cap(e.front) < n {
		e.front = make([]dynamo.Particle, n)
		e.back = make([]dynamo.Particle, n)
		e.transitions = make([]physics.Transition, n)
	}
	e.front = e.front[:n]
	e.back = e.back[:n]
	e.transitions = e.transitions[:n]
}

// Step advances particles by one frame in place. It never fails: bad values
// are wrapped, clamped or zeroed instead.
func (e *Engine) Step(particles []dynamo.Particle, gp dynamo.GridParams, p dynamo.PhysicsParams) dynamo.StepStats {
	start := time.Now()
	if p.ParticleCount > 0 && int(p.ParticleCount) < len(particles) {
		particles = particles[:p.ParticleCount]
	}
	n := len(particles)
	stats := dynamo.StepStats{Frame: p.FrameIndex, Particles: n}
	if n == 0 {
		return stats
	}
	e.ensure(n, gp)

	mark := time.Now()
	lap := func(s dynamo.Stage) {
		now := time.Now()
		stats.Stages[s] = now.Sub(mark)
		mark = now
	}

	e.pool.Run(n, minChunk, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			e.transitions[i] = physics.Interact(&particles[i], p)
		}
	})
	lap(dynamo.StageInteract)

	e.grid.Clear(e.pool)
	lap(dynamo.StageClear)

	e.grid.Populate(e.pool, particles)
	lap(dynamo.StagePopulate)

	e.forces.Reset(e.grid, particles, p)
	maxSpeed := p.MaxSpeed()
	e.pool.Run(n, minChunk, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			e.front[i] = e.integrate(particles, i, p, maxSpeed)
		}
	})
	lap(dynamo.StageIntegrate)

	iterations := p.OverlapIterations
	if iterations <= 0 {
		iterations = DefaultOverlapIterations
	}
	cur, next := e.front, e.back
	if p.OverlapStrength > 0 {
		for iter := 0; iter < iterations; iter++ {
			e.pool.Run(n, minChunk, func(lo, hi int) {
				physics.Resolve(e.grid, cur, next, p, iter, lo, hi)
			})
			cur, next = next, cur
		}
	}
	lap(dynamo.StageResolve)

	e.pool.Run(n, minChunk, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			physics.Pin(&cur[i], p)
		}
	})
	if p.DensityMode != dynamo.DensityOff {
		e.pool.Run(n, minChunk, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				cur[i].Density = physics.Density(e.grid, cur, i, p)
			}
		})
	}
	copy(particles, cur)
	lap(dynamo.StageFinish)

	for i := range cur {
		if cur[i].Grabbed {
			stats.Grabbed++
		}
		if e.transitions[i] == physics.Released {
			stats.Released++
		}
	}
	stats.Dropped = e.grid.Dropped()
	stats.MaxLoad = e.grid.MaxLoad()
	stats.Duration = time.Since(start)

	if stats.Dropped > 0 {
		e.log.Debug("grid overflow", "frame", p.FrameIndex, "dropped", stats.Dropped, "max_load", stats.MaxLoad)
	}
	if e.log.Enabled(context.Background(), LevelTrace) {
		e.log.Log(context.Background(), LevelTrace, "step", "stats", stats)
	}
	return stats
}

// integrate returns the post-force state of particle i. Particles that the
// interaction stage touched this step are carried over untouched.
func (e *Engine) integrate(src []dynamo.Particle, i int, p dynamo.PhysicsParams, maxSpeed float32) dynamo.Particle {
	out := src[i]
	if e.transitions[i] != physics.Free {
		return out
	}
	if out.Mass <= 0 {
		out.Position = dynamo.WrapVec(out.Position.AddScaled(out.Velocity, p.Dt))
		return out
	}

	near := e.forces.Contact(i)
	pos, vel := e.integ.Step(e.forces, i, out.Position, out.Velocity, p.Dt)

	vel = vel.Scale(p.EnergyDamping)
	if p.DensityDamping {
		vel = vel.Scale(physics.DensityDamping(near))
	}
	vel = physics.ClampSpeed(vel, maxSpeed)
	if !vel.IsFinite() {
		vel = dynamo.Vec2{}
	}
	if !pos.IsFinite() {
		pos = out.Position
	}
	out.Position = dynamo.WrapVec(pos)
	out.Velocity = vel
	return out
}
