// Package physics implements one step of the gravitational body simulation
// as three ordered phases over a [body.Store]:
//
//   - [Collide]: merge overlapping bodies until no pair overlaps
//   - [Integrate]: all-pairs gravity with a semi-implicit Euler update
//   - [Center]: translate the system so the reference frame sits at the origin
//
// The reference frame is a [Frame], either [CenterOfMass] or a [FixedBody]
// holding a handle to the main body.
//
// # Diagnostics
//
// [Energy], [Momentum] and [AngularMomentum] summarize a store and are used
// by the metrics observers to monitor drift:
//
//	e0 := physics.Energy(store, kappa)
//	physics.Integrate(store, kappa, dt)
//	drift := math.Abs(physics.Energy(store, kappa)-e0) / math.Abs(e0)
//
// Functions in this package are not safe for concurrent use on the same store.
package physics
