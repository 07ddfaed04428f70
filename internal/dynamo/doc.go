// Package dynamo provides the core primitives shared by the particle engine.
//
// The package defines the flat data model exchanged between the engine and
// its collaborators, plus the small numerical and concurrency helpers every
// stage of a step builds on:
//
//   - [Particle]: one body in the toroidal [-1, 1]² world
//   - [PhysicsParams]: per-step, read-only parameter block
//   - [GridParams]: uniform grid layout over the world
//   - [Pool]: persistent worker pool whose Run call is a full barrier
//   - [Hash]: deterministic (index, iteration, frame) mixer for jitter
//
// # Example
//
//	pool := dynamo.NewPool(0)
//	defer pool.Close()
//	pool.Run(len(particles), 64, func(start, end int) {
//	    for i := start; i < end; i++ {
//	        particles[i].Position = dynamo.WrapVec(particles[i].Position)
//	    }
//	})
//
// # Thread Safety
//
// Value types are safe to copy between goroutines. A [Pool] may be shared,
// but Run calls must not be nested or issued concurrently.
package dynamo
