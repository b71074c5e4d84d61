package physics

import (
	"errors"
	"math"

	"github.com/san-kum/gravsim/internal/body"
	"gonum.org/v1/gonum/spatial/r2"
)

// Integrate advances every body by dt with semi-implicit Euler. All
// velocity impulses are computed from the positions at entry, then every
// position moves by dt times its new velocity.
//
// Coincident pairs contribute no force. They are reported as joined
// *ZeroSeparationError values; the step itself always completes.
func Integrate(s *body.Store, kappa, dt float64) error {
	n := s.Len()
	if n == 0 {
		return nil
	}

	pos := make([]r2.Vec, n)
	mass := make([]float64, n)
	s.Each(func(i int, b *body.Body) {
		pos[i] = b.Position()
		mass[i] = b.Mass()
	})

	dv := make([]r2.Vec, n)
	var errs []error

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := r2.Sub(pos[j], pos[i])
			d2 := r2.Norm2(r)
			if d2 == 0 {
				errs = append(errs, &ZeroSeparationError{I: i, J: j})
				continue
			}

			r3Inv := 1.0 / (d2 * math.Sqrt(d2))
			f := kappa * dt * r3Inv
			dv[i] = r2.Add(dv[i], r2.Scale(f*mass[j], r))
			dv[j] = r2.Sub(dv[j], r2.Scale(f*mass[i], r))
		}
	}

	s.Each(func(i int, b *body.Body) {
		b.Kick(dv[i])
		b.Shift(r2.Scale(dt, b.Velocity()))
	})

	return errors.Join(errs...)
}
