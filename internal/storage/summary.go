package storage

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Summary condenses a run's samples for display.
type Summary struct {
	Samples     int
	FirstTime   float64
	LastTime    float64
	EnergyMin   float64
	EnergyMax   float64
	EnergyDrift float64 // (max-min)/|first|, 0 when the first energy is 0
	SpreadMax   float64
	BodiesFirst int
	BodiesLast  int
}

func Summarize(samples []*Sample) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	energy := Column(samples, func(s *Sample) float64 { return s.Energy })
	spread := Column(samples, func(s *Sample) float64 { return s.Spread })

	first, last := samples[0], samples[len(samples)-1]
	sum := Summary{
		Samples:     len(samples),
		FirstTime:   first.Time,
		LastTime:    last.Time,
		EnergyMin:   floats.Min(energy),
		EnergyMax:   floats.Max(energy),
		SpreadMax:   floats.Max(spread),
		BodiesFirst: first.Bodies,
		BodiesLast:  last.Bodies,
	}
	if e0 := math.Abs(first.Energy); e0 > 0 {
		sum.EnergyDrift = (sum.EnergyMax - sum.EnergyMin) / e0
	}
	return sum
}

// Column extracts one field from every sample.
func Column(samples []*Sample, field func(*Sample) float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = field(s)
	}
	return out
}
