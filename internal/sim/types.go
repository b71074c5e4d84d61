package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/gravsim/internal/physics"
)

// Metric accumulates a scalar over the steps of a run.
type Metric interface {
	Name() string
	Observe(s Snapshot)
	Value() float64
	Reset()
}

// Observer is called after every step with the engine lock held. It must
// not call back into the engine.
type Observer interface {
	OnStep(s Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Snapshot)

func (f ObserverFunc) OnStep(s Snapshot) { f(s) }

type Config struct {
	Dt        float64
	Speed     float64
	Kappa     float64
	MaxRadius float64

	// AutoMainBody makes the first body created into an empty engine the
	// main body when none is set.
	AutoMainBody bool
}

func DefaultConfig() Config {
	return Config{
		Dt:           0.01,
		Speed:        1.0,
		Kappa:        1.0,
		MaxRadius:    100.0,
		AutoMainBody: true,
	}
}

func (c Config) Validate() error {
	if err := checkDt(c.Dt); err != nil {
		return err
	}
	if err := checkSpeed(c.Speed); err != nil {
		return err
	}
	if err := checkMaxRadius(c.MaxRadius); err != nil {
		return err
	}
	if math.IsNaN(c.Kappa) || math.IsInf(c.Kappa, 0) {
		return fmt.Errorf("%w: kappa must be finite, got %f", ErrParameterBounds, c.Kappa)
	}
	return nil
}

func checkDt(dt float64) error {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrParameterBounds, dt)
	}
	return nil
}

func checkSpeed(speed float64) error {
	if !(speed >= 0) || math.IsInf(speed, 0) {
		return fmt.Errorf("%w: speed must be non-negative, got %f", ErrParameterBounds, speed)
	}
	return nil
}

func checkMaxRadius(r float64) error {
	if !(r > 0) {
		return fmt.Errorf("%w: max radius must be positive, got %f", ErrParameterBounds, r)
	}
	return nil
}

// BodyView is a read-only copy of one body.
type BodyView struct {
	Index    int
	Mass     float64
	Radius   float64
	Position r2.Vec
	Velocity r2.Vec
	Main     bool
}

// Diagnostics summarizes the system after a step.
type Diagnostics struct {
	Time            float64
	Step            uint64
	Bodies          int
	Mass            float64
	Energy          float64
	Momentum        r2.Vec
	AngularMomentum float64
	Spread          float64
}

// Snapshot is a consistent copy of the engine state.
type Snapshot struct {
	Running   bool
	Dt        float64
	Speed     float64
	Kappa     float64
	MaxRadius float64
	MainBody  int
	Bodies    []BodyView
	Diag      Diagnostics
}

// StepReport describes what one step did.
type StepReport struct {
	Step    uint64
	Time    float64
	DtEff   float64
	Merges  []physics.Merge
	Skipped error
}

type Result struct {
	Samples    []Diagnostics
	Metrics    map[string]float64
	Merges     int
	Skipped    int
	StepsTaken int
}
