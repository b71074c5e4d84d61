package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/sim"
)

const (
	DefaultDt         = 0.01
	DefaultSpeed      = 1.0
	DefaultKappa      = 1.0
	DefaultMaxRadius  = 100.0
	DefaultSteps      = 1000
	DefaultViewRadius = 600.0
)

type Config struct {
	Name   string       `yaml:"name,omitempty"`
	Engine EngineConfig `yaml:"engine"`
	Run    RunConfig    `yaml:"run"`
	Bodies []BodyConfig `yaml:"bodies"`
}

type EngineConfig struct {
	Dt           float64 `yaml:"dt"`
	Speed        float64 `yaml:"speed"`
	Kappa        float64 `yaml:"kappa"`
	MaxRadius    float64 `yaml:"max_radius"`
	AutoMainBody bool    `yaml:"auto_main_body"`
	// MainBody is the index pinned at the origin; -1 selects center-of-mass mode.
	MainBody int `yaml:"main_body"`
}

type RunConfig struct {
	Steps       int     `yaml:"steps"`
	SampleEvery int     `yaml:"sample_every"`
	ViewRadius  float64 `yaml:"view_radius"`
}

type BodyConfig struct {
	Mass   float64 `yaml:"mass"`
	Radius float64 `yaml:"radius"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	VX     float64 `yaml:"vx"`
	VY     float64 `yaml:"vy"`
}

func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Dt:           DefaultDt,
			Speed:        DefaultSpeed,
			Kappa:        DefaultKappa,
			MaxRadius:    DefaultMaxRadius,
			AutoMainBody: true,
			MainBody:     -1,
		},
		Run: RunConfig{
			Steps:       DefaultSteps,
			SampleEvery: 10,
			ViewRadius:  DefaultViewRadius,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.EngineConfig().Validate(); err != nil {
		return err
	}
	if c.Engine.MainBody < -1 {
		return fmt.Errorf("main_body %d invalid: use -1 for center of mass", c.Engine.MainBody)
	}
	if c.Engine.MainBody >= len(c.Bodies) {
		return fmt.Errorf("main_body %d out of range for %d bodies", c.Engine.MainBody, len(c.Bodies))
	}
	if c.Run.Steps < 0 || c.Run.SampleEvery < 0 {
		return fmt.Errorf("run steps and sample_every must not be negative")
	}
	_, err := c.BuildBodies()
	return err
}

func (c *Config) EngineConfig() sim.Config {
	return sim.Config{
		Dt:           c.Engine.Dt,
		Speed:        c.Engine.Speed,
		Kappa:        c.Engine.Kappa,
		MaxRadius:    c.Engine.MaxRadius,
		AutoMainBody: c.Engine.AutoMainBody,
	}
}

// ParseBody reads "mass radius x y vx vy" separated by commas or spaces.
// Trailing position and velocity fields may be left out and default to 0.
func ParseBody(s string) (BodyConfig, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) < 2 || len(fields) > 6 {
		return BodyConfig{}, fmt.Errorf("body %q: want mass,radius[,x,y,vx,vy]", s)
	}
	var v [6]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return BodyConfig{}, fmt.Errorf("body %q: %w", s, err)
		}
		v[i] = x
	}
	bc := BodyConfig{Mass: v[0], Radius: v[1], X: v[2], Y: v[3], VX: v[4], VY: v[5]}
	if _, err := bc.Body(); err != nil {
		return BodyConfig{}, fmt.Errorf("body %q: %w", s, err)
	}
	return bc, nil
}

// Body builds the body described by bc.
func (bc BodyConfig) Body() (body.Body, error) {
	return body.New(bc.Mass, bc.Radius, r2.Vec{X: bc.X, Y: bc.Y}, r2.Vec{X: bc.VX, Y: bc.VY})
}

func (c *Config) BuildBodies() ([]body.Body, error) {
	out := make([]body.Body, 0, len(c.Bodies))
	for i, bc := range c.Bodies {
		b, err := bc.Body()
		if err != nil {
			return nil, fmt.Errorf("bodies[%d]: %w", i, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// Apply replaces e's parameters, auto-main policy, bodies and main body
// with c's in a single engine update. Nothing is changed when c is invalid.
func (c *Config) Apply(e *sim.Engine) error {
	if err := c.Validate(); err != nil {
		return err
	}
	bodies, err := c.BuildBodies()
	if err != nil {
		return err
	}
	return e.Reconfigure(c.EngineConfig(), bodies, c.Engine.MainBody)
}

// NewEngine builds an engine from c with its bodies loaded.
func (c *Config) NewEngine(opts ...sim.Option) (*sim.Engine, error) {
	e, err := sim.New(c.EngineConfig(), opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Apply(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Clone returns a deep copy so presets are never mutated by callers.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Bodies = append([]BodyConfig(nil), c.Bodies...)
	return &cp
}
