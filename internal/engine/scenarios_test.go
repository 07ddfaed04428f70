package engine_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/granule/internal/dynamo"
	"github.com/san-kum/granule/internal/engine"
	"github.com/san-kum/granule/internal/grid"
	"github.com/san-kum/granule/internal/physics"
	"github.com/san-kum/granule/internal/scene"
)

var gridParams = dynamo.GridParams{CellSize: 0.05, Capacity: 64}

func physicsParams() dynamo.PhysicsParams {
	return dynamo.PhysicsParams{
		GrabEnabled:       true,
		EnergyDamping:     1,
		CollisionDamping:  0.9,
		Dt:                0.01,
		Softening:         0.01,
		InteractionRadius: 0.04,
		CursorRadius:      0.1,
		CursorStrength:    0.5,
		ParticleSize:      0.01,
		AspectRatio:       1,
		OverlapStrength:   0.8,
		OverlapIterations: 3,
		OverlapSkipRate:   0.25,
	}
}

func run(eng *engine.Engine, ps []dynamo.Particle, frames int, p dynamo.PhysicsParams, in engine.InputSource, obs engine.ObserverFunc) *engine.Result {
	sim := engine.NewSimulator(eng)
	if obs != nil {
		sim.AddObserver(obs)
	}
	res, err := sim.Run(context.Background(), ps, engine.RunConfig{
		Frames:  frames,
		Grid:    gridParams,
		Physics: p,
		Input:   in,
	})
	Expect(err).NotTo(HaveOccurred())
	return res
}

func overlapOf(ps []dynamo.Particle) float64 {
	g := grid.New(gridParams)
	g.Build(dynamo.NewPool(1), ps)
	return physics.TotalOverlap(g, ps)
}

var _ = Describe("Engine", func() {
	var eng *engine.Engine

	BeforeEach(func() {
		eng = engine.New(engine.WithWorkers(4))
	})

	AfterEach(func() {
		eng.Close()
	})

	It("keeps every particle inside the wrapped world", func() {
		ps, err := scene.New(scene.Config{Kind: "random", Count: 1500, Size: 0.01, Speed: 2}, 3)
		Expect(err).NotTo(HaveOccurred())
		p := physicsParams()
		p.Gravity = 0.001

		run(eng, ps, 60, p, nil, func(frame int, ps []dynamo.Particle, _ dynamo.StepStats) {
			for i := range ps {
				pos := ps[i].Position
				Expect(pos.X).To(BeNumerically(">=", -1), "frame %d particle %d", frame, i)
				Expect(pos.X).To(BeNumerically("<=", 1), "frame %d particle %d", frame, i)
				Expect(pos.Y).To(BeNumerically(">=", -1), "frame %d particle %d", frame, i)
				Expect(pos.Y).To(BeNumerically("<=", 1), "frame %d particle %d", frame, i)
			}
		})
	})

	It("never lets integrated speeds exceed the clamp", func() {
		ps, err := scene.New(scene.Config{Kind: "cluster", Count: 1200, Size: 0.01, Speed: 1, Spread: 0.1, Clumps: 3}, 5)
		Expect(err).NotTo(HaveOccurred())
		p := physicsParams()
		p.Gravity = 0.002
		limit := float64(p.MaxSpeed()) * (1 + 1e-5)

		run(eng, ps, 80, p, nil, func(frame int, ps []dynamo.Particle, _ dynamo.StepStats) {
			for i := range ps {
				Expect(float64(ps[i].Velocity.Len())).To(BeNumerically("<=", limit), "frame %d particle %d", frame, i)
			}
		})
	})

	Describe("massless particles", func() {
		It("drift at constant velocity and leave their neighbors alone", func() {
			serial := engine.New(engine.WithWorkers(1))
			defer serial.Close()

			base, err := scene.New(scene.Config{Kind: "cluster", Count: 200, Size: 0.01, Speed: 0.2, Spread: 0.05}, 11)
			Expect(err).NotTo(HaveOccurred())
			ghost := dynamo.Particle{
				Position: dynamo.Vec2{X: 0.95},
				Velocity: dynamo.Vec2{X: 1},
				Radius:   0.01,
			}
			with := append(append([]dynamo.Particle{}, base...), ghost)

			p := physicsParams()
			p.Gravity = 0.001
			a := run(serial, with, 20, p, nil, nil).Final
			b := run(serial, base, 20, p, nil, nil).Final

			for i := range b {
				Expect(a[i]).To(Equal(b[i]), "particle %d", i)
			}
			g := a[len(a)-1]
			Expect(g.Velocity).To(Equal(ghost.Velocity))
			Expect(g.Position.X).To(BeNumerically("~", -0.85, 1e-4))
		})
	})

	Describe("grabbing", func() {
		It("pins grabbed particles to the pointer every frame", func() {
			ps, err := scene.New(scene.Config{Kind: "cluster", Count: 40, Size: 0.01, Spread: 0.03}, 2)
			Expect(err).NotTo(HaveOccurred())
			in := engine.OrbitInput{Radius: 0.05, Period: 40, Dt: 0.01}
			grabbed := 0

			run(eng, ps, 30, physicsParams(), in, func(frame int, ps []dynamo.Particle, _ dynamo.StepStats) {
				ptr := in.Pointer(frame).Position
				for i := range ps {
					if !ps[i].Grabbed {
						continue
					}
					grabbed++
					Expect(ps[i].Position).To(Equal(ptr.Add(ps[i].PreviousPosition)), "frame %d particle %d", frame, i)
				}
			})
			Expect(grabbed).To(BeNumerically(">", 0))
		})

		It("throws a released particle with twice the scaled pointer velocity", func() {
			ps := []dynamo.Particle{{Mass: 1, Radius: 0.01}}
			p := physicsParams()
			in := engine.DragInput{
				Start:     dynamo.Vec2{X: 0.01},
				Velocity:  dynamo.Vec2{X: 1},
				GrabAt:    0,
				ReleaseAt: 10,
				Dt:        p.Dt,
			}
			var released int
			res := run(eng, ps, 11, p, in, func(frame int, ps []dynamo.Particle, stats dynamo.StepStats) {
				if frame < 10 {
					Expect(ps[0].Grabbed).To(BeTrue(), "frame %d", frame)
				}
				released += stats.Released
			})

			Expect(released).To(Equal(1))
			want := dynamo.Vec2{X: 1}.Scale(p.CursorStrength * 2)
			Expect(res.Final[0].Grabbed).To(BeFalse())
			Expect(res.Final[0].Velocity.X).To(BeNumerically("~", want.X, 1e-6))
			Expect(res.Final[0].Velocity.Y).To(BeNumerically("~", want.Y, 1e-6))
		})
	})

	Describe("two-body collision", func() {
		It("reverses velocities on first contact and separates the pair", func() {
			const v = 0.5
			ps := []dynamo.Particle{
				{Position: dynamo.Vec2{X: -0.018}, Velocity: dynamo.Vec2{X: v}, Mass: 1, Radius: 0.02},
				{Position: dynamo.Vec2{X: 0.018}, Velocity: dynamo.Vec2{X: -v}, Mass: 1, Radius: 0.02},
			}
			p := physicsParams()
			p.ParticleSize = 0.02

			eng.Step(ps, gridParams, p)

			// e = 2·damping - 1 for the impulse j = -2·vn/(1/m1+1/m2)·damping
			want := v * (2*p.CollisionDamping - 1)
			Expect(ps[0].Velocity.X).To(BeNumerically("~", -want, 1e-4))
			Expect(ps[1].Velocity.X).To(BeNumerically("~", want, 1e-4))
			Expect(ps[0].Velocity.Y).To(BeZero())

			for frame := 1; frame <= 10; frame++ {
				p.FrameIndex = uint32(frame)
				eng.Step(ps, gridParams, p)
			}
			gap := dynamo.MinImage(ps[1].Position.Sub(ps[0].Position)).Len()
			Expect(gap).To(BeNumerically(">=", ps[0].Radius+ps[1].Radius))
		})
	})

	Describe("overlap resolution", func() {
		It("reduces total overlap on average over iterations", func() {
			const trials, iterations = 20, 3
			avg := make([]float64, iterations+1)

			for trial := 0; trial < trials; trial++ {
				cur, err := scene.New(scene.Config{Kind: "random", Count: 30, Size: 0.02}, int64(trial))
				Expect(err).NotTo(HaveOccurred())
				for i := range cur {
					cur[i].Position = cur[i].Position.Scale(0.1)
				}
				next := make([]dynamo.Particle, len(cur))
				p := physicsParams()
				p.FrameIndex = uint32(trial)

				avg[0] += overlapOf(cur) / trials
				for iter := 0; iter < iterations; iter++ {
					g := grid.New(gridParams)
					g.Build(dynamo.NewPool(1), cur)
					physics.Resolve(g, cur, next, p, iter, 0, len(cur))
					cur, next = next, cur
					avg[iter+1] += overlapOf(cur) / trials
				}
			}

			for k := 1; k <= iterations; k++ {
				Expect(avg[k]).To(BeNumerically("<=", avg[k-1]), "iteration %d", k)
			}
			Expect(avg[iterations]).To(BeNumerically("<", avg[0]))
		})

		It("produces bit-identical corrections regardless of worker count", func() {
			ps, err := scene.New(scene.Config{Kind: "cluster", Count: 500, Size: 0.01, Spread: 0.05}, 9)
			Expect(err).NotTo(HaveOccurred())
			g := grid.New(gridParams)
			g.Build(dynamo.NewPool(1), ps)
			p := physicsParams()
			p.FrameIndex = 1234

			serial := make([]dynamo.Particle, len(ps))
			physics.Resolve(g, ps, serial, p, 1, 0, len(ps))

			pool := dynamo.NewPool(4)
			defer pool.Close()
			parallel := make([]dynamo.Particle, len(ps))
			pool.Run(len(ps), 16, func(lo, hi int) {
				physics.Resolve(g, ps, parallel, p, 1, lo, hi)
			})

			Expect(parallel).To(Equal(serial))
		})
	})
})
