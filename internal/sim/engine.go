package sim

import (
	"log/slog"
	"sync"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/physics"
)

// Engine binds a body store, its parameters and a scheduler. All methods
// are safe for concurrent use; a step runs as one unit under the engine
// lock, so control calls never interleave with a step in progress.
type Engine struct {
	mu sync.RWMutex

	store *body.Store
	frame physics.Frame
	cfg   Config
	time  float64
	steps uint64

	run *run

	metrics   []Metric
	observers []Observer
	log       *slog.Logger
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		store: body.NewStore(),
		frame: physics.CenterOfMass{},
		cfg:   cfg,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) AddMetric(m Metric) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = append(e.metrics, m)
}

func (e *Engine) AddObserver(o Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

// CreateBody appends b and returns its index.
func (e *Engine) CreateBody(b body.Body) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.create(b)
}

func (e *Engine) create(b body.Body) int {
	h, i := e.store.Append(b)
	if _, ok := e.frame.(physics.CenterOfMass); ok && e.cfg.AutoMainBody && e.store.Len() == 1 {
		e.frame = physics.FixedBody{Handle: h}
	}
	return i
}

// LoadBodies replaces all bodies. main selects the main body by index;
// a negative main leaves the engine in center-of-mass mode unless
// AutoMainBody applies.
func (e *Engine) LoadBodies(bodies []body.Body, main int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.load(bodies, main)
}

// Reconfigure replaces every parameter, the auto-main policy and all bodies
// under one lock. A running scheduler steps either the old state or the
// new one. Nothing changes when cfg is invalid.
func (e *Engine) Reconfigure(cfg Config, bodies []body.Body, main int) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cfg = cfg
	e.load(bodies, main)
	return nil
}

func (e *Engine) load(bodies []body.Body, main int) {
	e.store.Clear()
	e.frame = physics.CenterOfMass{}
	for _, b := range bodies {
		e.create(b)
	}
	if main >= 0 {
		e.setMain(main)
	}
}

// AutoMainBody reports whether the first body created into an empty engine
// becomes main.
func (e *Engine) AutoMainBody() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg.AutoMainBody
}

// DeleteBody removes the body at index i. Deleting the main body switches
// to center-of-mass mode.
func (e *Engine) DeleteBody(i int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	h, _ := e.store.HandleAt(i)
	if err := e.store.Remove(i); err != nil {
		return err
	}
	if f, ok := e.frame.(physics.FixedBody); ok && f.Handle == h {
		e.frame = physics.CenterOfMass{}
		e.log.Debug("main body deleted", "index", i)
	}
	return nil
}

func (e *Engine) ClearBodies() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.Clear()
	e.frame = physics.CenterOfMass{}
}

// SetMainBody pins the body at index i. An out-of-range index is ignored
// and the current frame is kept.
func (e *Engine) SetMainBody(i int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setMain(i)
}

func (e *Engine) setMain(i int) {
	h, ok := e.store.HandleAt(i)
	if !ok {
		e.log.Debug("ignoring main body", "index", i, "bodies", e.store.Len())
		return
	}
	e.frame = physics.FixedBody{Handle: h}
}

// ClearMainBody switches to center-of-mass mode.
func (e *Engine) ClearMainBody() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frame = physics.CenterOfMass{}
}

// SetDt changes the step size. While running, the new value is used from
// the next tick on, both for the advance and for the tick interval.
func (e *Engine) SetDt(dt float64) error {
	if err := checkDt(dt); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Dt = dt
	return nil
}

func (e *Engine) SetSpeed(speed float64) error {
	if err := checkSpeed(speed); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Speed = speed
	return nil
}

func (e *Engine) SetKappa(kappa float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Kappa = kappa
}

func (e *Engine) SetMaxRadius(r float64) error {
	if err := checkMaxRadius(r); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.MaxRadius = r
	return nil
}

func (e *Engine) Time() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.time
}

func (e *Engine) BodyCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Len()
}

// MainBodyIndex returns the current index of the main body, or false in
// center-of-mass mode.
func (e *Engine) MainBodyIndex() (int, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mainIndex()
}

func (e *Engine) mainIndex() (int, bool) {
	f, ok := e.frame.(physics.FixedBody)
	if !ok {
		return -1, false
	}
	return e.store.IndexOf(f.Handle)
}

func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.run != nil
}

func (e *Engine) Dt() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg.Dt
}

func (e *Engine) Speed() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg.Speed
}

func (e *Engine) Kappa() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg.Kappa
}

func (e *Engine) MaxRadius() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg.MaxRadius
}

// Bodies returns a copy of every body in index order.
func (e *Engine) Bodies() []BodyView {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bodies()
}

func (e *Engine) bodies() []BodyView {
	main, _ := e.mainIndex()
	out := make([]BodyView, 0, e.store.Len())
	e.store.Each(func(i int, b *body.Body) {
		out = append(out, BodyView{
			Index:    i,
			Mass:     b.Mass(),
			Radius:   b.Radius(),
			Position: b.Position(),
			Velocity: b.Velocity(),
			Main:     i == main,
		})
	})
	return out
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot()
}

func (e *Engine) snapshot() Snapshot {
	main, ok := e.mainIndex()
	if !ok {
		main = -1
	}
	return Snapshot{
		Running:   e.run != nil,
		Dt:        e.cfg.Dt,
		Speed:     e.cfg.Speed,
		Kappa:     e.cfg.Kappa,
		MaxRadius: e.cfg.MaxRadius,
		MainBody:  main,
		Bodies:    e.bodies(),
		Diag:      e.diagnostics(),
	}
}

func (e *Engine) diagnostics() Diagnostics {
	return Diagnostics{
		Time:            e.time,
		Step:            e.steps,
		Bodies:          e.store.Len(),
		Mass:            physics.TotalMass(e.store),
		Energy:          physics.Energy(e.store, e.cfg.Kappa),
		Momentum:        physics.Momentum(e.store),
		AngularMomentum: physics.AngularMomentum(e.store),
		Spread:          physics.Spread(e.store),
	}
}

// Step runs collision resolution, integration and centering once,
// independently of the scheduler.
func (e *Engine) Step() StepReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.step()
}

func (e *Engine) step() StepReport {
	dt := e.cfg.Dt * e.cfg.Speed

	merges := physics.Collide(e.store, e.cfg.MaxRadius)
	for _, m := range merges {
		e.adopt(m)
		e.log.Debug("bodies merged", "mass", m.Mass, "radius", m.Radius, "bodies", e.store.Len())
	}

	skipped := physics.Integrate(e.store, e.cfg.Kappa, dt)
	if skipped != nil {
		e.log.Warn("skipped coincident bodies", "time", e.time, "error", skipped)
	}
	e.time += dt
	e.steps++

	physics.Center(e.store, e.frame)

	if len(e.metrics) > 0 || len(e.observers) > 0 {
		snap := e.snapshot()
		for _, m := range e.metrics {
			m.Observe(snap)
		}
		for _, o := range e.observers {
			o.OnStep(snap)
		}
	}

	return StepReport{
		Step:    e.steps,
		Time:    e.time,
		DtEff:   dt,
		Merges:  merges,
		Skipped: skipped,
	}
}

// adopt moves the main body designation onto a merge result when the main
// body was consumed.
func (e *Engine) adopt(m physics.Merge) {
	f, ok := e.frame.(physics.FixedBody)
	if !ok {
		return
	}
	if f.Handle == m.A || f.Handle == m.B {
		e.frame = physics.FixedBody{Handle: m.Result}
	}
}
