package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/gravsim/internal/sim"
)

// EnergyDrift reports the spread of total energy over a run relative to
// the first observed energy. Merges are inelastic and lose kinetic
// energy, so runs with collisions always drift.
type EnergyDrift struct {
	name     string
	energies []float64
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s sim.Snapshot) {
	if s.Diag.Bodies < 2 {
		return
	}
	e.energies = append(e.energies, s.Diag.Energy)
}

func (e *EnergyDrift) Value() float64 {
	if len(e.energies) == 0 || e.energies[0] == 0 {
		return 0
	}
	return (floats.Max(e.energies) - floats.Min(e.energies)) / math.Abs(e.energies[0])
}

func (e *EnergyDrift) Reset() {
	e.energies = e.energies[:0]
}

// MomentumDrift reports the largest deviation of total momentum from its
// first observed value.
type MomentumDrift struct {
	name     string
	initial  r2.Vec
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(s sim.Snapshot) {
	if m.samples == 0 {
		m.initial = s.Diag.Momentum
	}
	m.samples++
	m.maxDrift = math.Max(m.maxDrift, r2.Norm(r2.Sub(s.Diag.Momentum, m.initial)))
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = r2.Vec{}
	m.maxDrift = 0
	m.samples = 0
}
