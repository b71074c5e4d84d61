package physics

import "github.com/san-kum/gravsim/internal/body"

// Frame selects what Center pins to the origin. The only implementations
// are CenterOfMass and FixedBody.
type Frame interface {
	frame()
}

// CenterOfMass pins the mass-weighted centroid of all bodies.
type CenterOfMass struct{}

// FixedBody pins the body referenced by Handle.
type FixedBody struct {
	Handle body.Handle
}

func (CenterOfMass) frame() {}
func (FixedBody) frame()    {}
