// Package viz is the terminal control surface for a running engine.
//
// [Model] polls [sim.Engine.Snapshot] on a timer and draws the bodies on a
// Braille [Canvas] next to a status panel. All control goes through the
// engine's public operations, so the scheduler keeps running between
// frames.
//
// # Key Bindings
//
//	Space - Start/stop the simulation
//	+/-   - Raise/lower speed
//	n/p   - Next/previous main body
//	0     - Center-of-mass mode
//	a     - Add a body on a circular orbit
//	b     - Type a body as "mass radius x y vx vy", Enter to create
//	d     - Delete the last body
//	c     - Clear all bodies
//	z/x   - Zoom in/out
//	f     - Fit all bodies in view
//	1-9   - Load a preset
//	?     - Toggle help
//	q     - Quit
package viz
