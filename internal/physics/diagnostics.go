package physics

import (
	"math"

	"github.com/san-kum/gravsim/internal/body"
	"gonum.org/v1/gonum/spatial/r2"
)

// Energy returns kinetic plus gravitational potential energy. Coincident
// pairs are left out of the potential term.
func Energy(s *body.Store, kappa float64) float64 {
	bodies := s.Snapshot()
	ke, pe := 0.0, 0.0

	for i := range bodies {
		v := bodies[i].Velocity()
		ke += 0.5 * bodies[i].Mass() * r2.Norm2(v)

		for j := i + 1; j < len(bodies); j++ {
			r := r2.Norm(r2.Sub(bodies[j].Position(), bodies[i].Position()))
			if r == 0 {
				continue
			}
			pe -= kappa * bodies[i].Mass() * bodies[j].Mass() / r
		}
	}

	return ke + pe
}

func Momentum(s *body.Store) r2.Vec {
	var p r2.Vec
	s.Each(func(_ int, b *body.Body) {
		p = r2.Add(p, b.Momentum())
	})
	return p
}

// AngularMomentum returns the z component of the total angular momentum
// about the origin.
func AngularMomentum(s *body.Store) float64 {
	L := 0.0
	s.Each(func(_ int, b *body.Body) {
		L += r2.Cross(b.Position(), b.Momentum())
	})
	return L
}

func TotalMass(s *body.Store) float64 {
	m := 0.0
	s.Each(func(_ int, b *body.Body) { m += b.Mass() })
	return m
}

// Spread returns the largest distance of any body from the origin.
func Spread(s *body.Store) float64 {
	d := 0.0
	s.Each(func(_ int, b *body.Body) {
		d = math.Max(d, r2.Norm(b.Position()))
	})
	return d
}
