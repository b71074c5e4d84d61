package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/sim"
)

type Divergence struct {
	Exponent float64
	Steps    int
	// Diverged is set when the engines stopped holding the same bodies.
	Diverged bool
}

// LyapunovExponent estimates the largest Lyapunov exponent of the system
// held by ref. pert must hold the same bodies; its first body is shifted by
// perturbation along X before the run. Both engines are stepped directly
// and must not be running.
func LyapunovExponent(ref, pert *sim.Engine, steps, renorm int, perturbation float64) (Divergence, error) {
	if steps <= 0 || renorm <= 0 || !(perturbation > 0) {
		return Divergence{}, fmt.Errorf("%w: steps, renorm and perturbation must be positive", sim.ErrParameterBounds)
	}
	if ref.IsRunning() || pert.IsRunning() {
		return Divergence{}, fmt.Errorf("%w: engine is running", sim.ErrInvalidTransition)
	}
	h := ref.Dt() * ref.Speed()
	if h == 0 {
		return Divergence{}, fmt.Errorf("%w: zero effective timestep", sim.ErrParameterBounds)
	}

	a, b := pert.Snapshot(), ref.Snapshot()
	if len(a.Bodies) != len(b.Bodies) || len(a.Bodies) == 0 {
		return Divergence{}, fmt.Errorf("%w: engines hold %d and %d bodies", sim.ErrParameterBounds, len(b.Bodies), len(a.Bodies))
	}
	a.Bodies[0].Position.X += perturbation
	if err := reload(pert, a); err != nil {
		return Divergence{}, err
	}

	var (
		d       Divergence
		sumLog  float64
		samples int
	)
	for d.Steps < steps {
		ref.Step()
		pert.Step()
		d.Steps++
		if d.Steps%renorm != 0 {
			continue
		}

		rs, ps := ref.Snapshot(), pert.Snapshot()
		if len(rs.Bodies) != len(ps.Bodies) {
			d.Diverged = true
			break
		}
		x, y := phase(rs.Bodies), phase(ps.Bodies)
		sep := floats.Distance(x, y, 2)
		if sep == 0 {
			continue
		}
		sumLog += math.Log(sep / perturbation)
		samples++

		rescale(ps.Bodies, rs.Bodies, perturbation/sep)
		if err := reload(pert, ps); err != nil {
			return d, err
		}
	}

	if samples > 0 {
		d.Exponent = sumLog / (float64(samples*renorm) * h)
	}
	return d, nil
}

// phase flattens positions and velocities into one vector.
func phase(bodies []sim.BodyView) []float64 {
	out := make([]float64, 0, 4*len(bodies))
	for _, b := range bodies {
		out = append(out, b.Position.X, b.Position.Y, b.Velocity.X, b.Velocity.Y)
	}
	return out
}

// rescale moves p toward r so that their separation shrinks by s.
func rescale(p, r []sim.BodyView, s float64) {
	for i := range p {
		p[i].Position = r2.Add(r[i].Position, r2.Scale(s, r2.Sub(p[i].Position, r[i].Position)))
		p[i].Velocity = r2.Add(r[i].Velocity, r2.Scale(s, r2.Sub(p[i].Velocity, r[i].Velocity)))
	}
}

func reload(e *sim.Engine, snap sim.Snapshot) error {
	bodies := make([]body.Body, len(snap.Bodies))
	for i, v := range snap.Bodies {
		b, err := body.New(v.Mass, v.Radius, v.Position, v.Velocity)
		if err != nil {
			return err
		}
		bodies[i] = b
	}
	e.LoadBodies(bodies, snap.MainBody)
	if snap.MainBody < 0 {
		e.ClearMainBody()
	}
	return nil
}
