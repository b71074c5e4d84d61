package config

import (
	"math"
	"sort"
)

func engineDefaults() EngineConfig {
	return DefaultConfig().Engine
}

func runDefaults() RunConfig {
	return DefaultConfig().Run
}

var Presets = map[string]*Config{
	"solar": {
		Name: "solar", Engine: engineDefaults(), Run: runDefaults(),
		Bodies: []BodyConfig{
			{Mass: 1000, Radius: 40},
			{Mass: 20, Radius: 15, X: 175, VY: -80},
			{Mass: 5, Radius: 5, X: 200, VY: -46},
		},
	},
	"binary": {
		Name: "binary", Engine: EngineConfig{
			Dt: 0.005, Speed: 1, Kappa: 1, MaxRadius: DefaultMaxRadius, MainBody: -1,
		}, Run: runDefaults(),
		Bodies: []BodyConfig{
			{Mass: 500, Radius: 20, X: -100, VY: -binarySpeed(500, 200)},
			{Mass: 500, Radius: 20, X: 100, VY: binarySpeed(500, 200)},
		},
	},
	"collision": {
		Name: "collision", Engine: engineDefaults(), Run: RunConfig{Steps: 200, SampleEvery: 1, ViewRadius: DefaultViewRadius},
		Bodies: []BodyConfig{
			{Mass: 5, Radius: 10},
			{Mass: 5, Radius: 10, X: 5},
		},
	},
	"cluster": {
		Name: "cluster", Engine: EngineConfig{
			Dt: 0.01, Speed: 1, Kappa: 50, MaxRadius: 60, MainBody: -1,
		}, Run: runDefaults(),
		Bodies: ring(12, 250, 10, 4),
	},
	"empty": {
		Name: "empty", Engine: engineDefaults(), Run: runDefaults(),
	},
}

// binarySpeed is the circular orbit speed of each of two equal masses m
// separated by d, with kappa 1.
func binarySpeed(m, d float64) float64 {
	return math.Sqrt(m / (2 * d))
}

func ring(n int, r, mass, radius float64) []BodyConfig {
	out := make([]BodyConfig, n)
	for i := range out {
		a := 2 * math.Pi * float64(i) / float64(n)
		out[i] = BodyConfig{
			Mass:   mass,
			Radius: radius,
			X:      r * math.Cos(a),
			Y:      r * math.Sin(a),
			VX:     -5 * math.Sin(a),
			VY:     5 * math.Cos(a),
		}
	}
	return out
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
