// Package analysis measures how sensitive an n-body system is to its
// initial conditions.
//
// [LyapunovExponent] follows a reference engine and a copy whose first body
// is displaced slightly, renormalizing their separation at a fixed step
// interval (the Benettin method):
//
//	d, err := analysis.LyapunovExponent(ref, pert, 5000, 10, 1e-6)
//	if d.Exponent > 0 {
//	    // nearby orbits diverge exponentially
//	}
//
// The two engines can only be compared while they hold the same bodies. A
// merge that happens in one and not the other ends the measurement early
// and sets [Divergence.Diverged].
package analysis
