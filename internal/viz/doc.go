// Package viz is the live terminal view of the particle engine, built on
// Bubble Tea.
//
//   - [Model]: steps the engine on every tick and draws the buffer
//   - [Canvas]: Braille-based pixel canvas with per-cell color levels
//   - [Theme]: color ramps for the density and speed coloring
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	.     - Single step while paused
//	R     - Reset to initial state
//	M     - Toggle attract/repel
//	G     - Toggle grab
//	D     - Cycle color metric
//	Tab   - Select parameter, Up/Down to adjust
//	T     - Cycle color themes
//	?     - Show help overlay
//
// The left mouse button presses the pointer. With grab on, particles under
// it are carried and thrown with the pointer velocity on release.
package viz
