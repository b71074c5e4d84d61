package physics

import (
	"github.com/san-kum/gravsim/internal/body"
	"gonum.org/v1/gonum/spatial/r2"
)

// Center translates every body so the frame's reference point lands on the
// origin. A FixedBody whose handle no longer resolves falls back to the
// center of mass.
func Center(s *body.Store, f Frame) {
	if s.Len() == 0 {
		return
	}

	var origin r2.Vec
	switch f := f.(type) {
	case FixedBody:
		if b, ok := s.Resolve(f.Handle); ok {
			origin = b.Position()
		} else {
			origin = Barycenter(s)
		}
	case CenterOfMass, nil:
		origin = Barycenter(s)
	}

	shift := r2.Scale(-1, origin)
	s.Each(func(_ int, b *body.Body) {
		b.Shift(shift)
	})
}

// Barycenter returns the mass-weighted centroid of all bodies, or the zero
// vector for an empty store.
func Barycenter(s *body.Store) r2.Vec {
	var sum r2.Vec
	total := 0.0
	s.Each(func(_ int, b *body.Body) {
		sum = r2.Add(sum, r2.Scale(b.Mass(), b.Position()))
		total += b.Mass()
	})
	if total == 0 {
		return r2.Vec{}
	}
	return r2.Scale(1/total, sum)
}
