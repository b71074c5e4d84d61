package body

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Body is a disc-shaped point mass.
type Body struct {
	mass   float64
	radius float64
	pos    r2.Vec
	vel    r2.Vec
}

// New returns a body with the given mass, radius, position and velocity.
// Mass and radius must be positive and finite.
func New(mass, radius float64, pos, vel r2.Vec) (Body, error) {
	if !(mass > 0) || math.IsInf(mass, 0) {
		return Body{}, fmt.Errorf("%w: mass %v", ErrInvalidBody, mass)
	}
	if !(radius > 0) || math.IsInf(radius, 0) {
		return Body{}, fmt.Errorf("%w: radius %v", ErrInvalidBody, radius)
	}
	return Body{mass: mass, radius: radius, pos: pos, vel: vel}, nil
}

// MustNew is like New but panics on invalid input. Intended for presets and tests.
func MustNew(mass, radius float64, pos, vel r2.Vec) Body {
	b, err := New(mass, radius, pos, vel)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Body) Mass() float64    { return b.mass }
func (b *Body) Radius() float64  { return b.radius }
func (b *Body) Position() r2.Vec { return b.pos }
func (b *Body) Velocity() r2.Vec { return b.vel }
func (b *Body) Momentum() r2.Vec { return r2.Scale(b.mass, b.vel) }
func (b *Body) Kick(dv r2.Vec)   { b.vel = r2.Add(b.vel, dv) }
func (b *Body) Shift(dx r2.Vec)  { b.pos = r2.Add(b.pos, dx) }

func (b *Body) String() string {
	return fmt.Sprintf("body(m=%.3g r=%.3g pos=(%.3f,%.3f) vel=(%.3f,%.3f))",
		b.mass, b.radius, b.pos.X, b.pos.Y, b.vel.X, b.vel.Y)
}

// Overlaps reports whether the discs of a and b intersect. Touching discs
// do not overlap.
func Overlaps(a, b *Body) bool {
	return r2.Norm(r2.Sub(a.pos, b.pos)) < a.radius+b.radius
}

// Merge returns the inelastic union of a and b: masses add, position and
// velocity are mass-weighted, and the radius is area-additive capped at
// maxRadius.
func Merge(a, b *Body, maxRadius float64) Body {
	m := a.mass + b.mass
	wa, wb := a.mass/m, b.mass/m
	return Body{
		mass:   m,
		radius: math.Min(maxRadius, math.Hypot(a.radius, b.radius)),
		pos:    r2.Add(r2.Scale(wa, a.pos), r2.Scale(wb, b.pos)),
		vel:    r2.Add(r2.Scale(wa, a.vel), r2.Scale(wb, b.vel)),
	}
}
