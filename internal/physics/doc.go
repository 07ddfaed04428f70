// Package physics holds the per-particle rules the engine composes each step:
//
//   - [Forces]: softened pairwise gravity, pointer attraction or repulsion and
//     the collision impulse computed by [Forces.Contact]
//   - [Separate] and [Resolve]: positional overlap correction with
//     hash-seeded jitter
//   - [Interact] and [Pin]: grab, hold and throw under the pointer
//   - [Density]: the coloring metric
//
// Every function reads only the previous snapshot and writes only the slot it
// was given, so callers may run them over disjoint ranges in parallel.
//
// Distances are minimum-image on the torus:
//
//	d := dynamo.MinImage(ps[j].Position.Sub(ps[i].Position))
package physics
