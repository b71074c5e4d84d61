package metrics

import "github.com/san-kum/gravsim/internal/sim"

// Merges counts bodies lost between consecutive observations. Deletions
// made from the control surface while running are counted too.
type Merges struct {
	name  string
	last  int
	count int
	seen  bool
}

func NewMerges() *Merges {
	return &Merges{name: "merges"}
}

func (m *Merges) Name() string { return m.name }

func (m *Merges) Observe(s sim.Snapshot) {
	n := s.Diag.Bodies
	if m.seen && n < m.last {
		m.count += m.last - n
	}
	m.last, m.seen = n, true
}

func (m *Merges) Value() float64 { return float64(m.count) }

func (m *Merges) Reset() {
	m.last, m.count, m.seen = 0, 0, false
}

// Default returns the metrics recorded for every run.
func Default(viewRadius float64) []sim.Metric {
	return []sim.Metric{
		NewEnergyDrift(),
		NewMomentumDrift(),
		NewContainment(viewRadius),
		NewMerges(),
	}
}
