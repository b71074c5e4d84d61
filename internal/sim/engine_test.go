package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/sim"
)

var _ = Describe("Engine", func() {
	Describe("configuration", func() {
		DescribeTable("rejects invalid parameters",
			func(mut func(*sim.Config)) {
				cfg := sim.DefaultConfig()
				mut(&cfg)
				_, err := sim.New(cfg)
				Expect(errors.Is(err, sim.ErrParameterBounds)).To(BeTrue())
			},
			Entry("zero dt", func(c *sim.Config) { c.Dt = 0 }),
			Entry("negative dt", func(c *sim.Config) { c.Dt = -0.1 }),
			Entry("negative speed", func(c *sim.Config) { c.Speed = -1 }),
			Entry("zero max radius", func(c *sim.Config) { c.MaxRadius = 0 }),
			Entry("nan kappa", func(c *sim.Config) { c.Kappa = math.NaN() }),
		)

		It("validates setters and keeps the old value on error", func() {
			e := newEngine(nil)

			Expect(errors.Is(e.SetDt(0), sim.ErrParameterBounds)).To(BeTrue())
			Expect(errors.Is(e.SetSpeed(-2), sim.ErrParameterBounds)).To(BeTrue())
			Expect(errors.Is(e.SetMaxRadius(-1), sim.ErrParameterBounds)).To(BeTrue())
			Expect(e.Dt()).To(Equal(0.01))
			Expect(e.Speed()).To(Equal(1.0))

			Expect(e.SetDt(0.02)).To(Succeed())
			Expect(e.SetSpeed(0)).To(Succeed())
			Expect(e.SetMaxRadius(5)).To(Succeed())
			e.SetKappa(-3)
			Expect(e.Dt()).To(Equal(0.02))
			Expect(e.Speed()).To(Equal(0.0))
			Expect(e.MaxRadius()).To(Equal(5.0))
			Expect(e.Kappa()).To(Equal(-3.0))
		})

		It("reconfigures parameters, policy and bodies together", func() {
			e := newEngine(nil)
			e.CreateBody(disc(1000, 40, 0, 0, 0, 0))
			_, ok := e.MainBodyIndex()
			Expect(ok).To(BeTrue())

			cfg := sim.DefaultConfig()
			cfg.Dt = 0.005
			cfg.Kappa = 50
			cfg.AutoMainBody = false
			Expect(e.Reconfigure(cfg, []body.Body{
				disc(500, 20, -100, 0, 0, -1),
				disc(500, 20, 100, 0, 0, 1),
			}, -1)).To(Succeed())

			Expect(e.Dt()).To(Equal(0.005))
			Expect(e.Kappa()).To(Equal(50.0))
			Expect(e.AutoMainBody()).To(BeFalse())
			Expect(e.BodyCount()).To(Equal(2))
			_, ok = e.MainBodyIndex()
			Expect(ok).To(BeFalse())

			e.ClearBodies()
			e.CreateBody(disc(1, 1, 0, 0, 0, 0))
			_, ok = e.MainBodyIndex()
			Expect(ok).To(BeFalse())
		})

		It("leaves the engine untouched on an invalid reconfiguration", func() {
			e := newEngine(nil)
			e.CreateBody(disc(1, 1, 0, 0, 0, 0))

			cfg := sim.DefaultConfig()
			cfg.Dt = -1
			err := e.Reconfigure(cfg, nil, -1)
			Expect(errors.Is(err, sim.ErrParameterBounds)).To(BeTrue())
			Expect(e.Dt()).To(Equal(0.01))
			Expect(e.BodyCount()).To(Equal(1))
		})
	})

	Describe("main body selection", func() {
		It("auto-selects the first body when enabled", func() {
			e := newEngine(nil)
			Expect(e.CreateBody(disc(1, 1, 0, 0, 0, 0))).To(Equal(0))
			Expect(e.CreateBody(disc(1, 1, 10, 0, 0, 0))).To(Equal(1))

			i, ok := e.MainBodyIndex()
			Expect(ok).To(BeTrue())
			Expect(i).To(Equal(0))
		})

		It("stays in center-of-mass mode when auto-selection is off", func() {
			e := newEngine(func(c *sim.Config) { c.AutoMainBody = false })
			e.CreateBody(disc(1, 1, 0, 0, 0, 0))

			_, ok := e.MainBodyIndex()
			Expect(ok).To(BeFalse())
		})

		It("ignores out-of-range selections", func() {
			e := newEngine(nil)
			e.CreateBody(disc(1, 1, 0, 0, 0, 0))
			e.CreateBody(disc(1, 1, 10, 0, 0, 0))
			e.SetMainBody(1)

			e.SetMainBody(2)
			e.SetMainBody(-1)

			i, ok := e.MainBodyIndex()
			Expect(ok).To(BeTrue())
			Expect(i).To(Equal(1))

			e.ClearMainBody()
			_, ok = e.MainBodyIndex()
			Expect(ok).To(BeFalse())
		})
	})

	Describe("deletion", func() {
		var e *sim.Engine

		BeforeEach(func() {
			e = newEngine(nil)
			for i := 0; i < 4; i++ {
				e.CreateBody(disc(1, 1, float64(i)*10, 0, 0, 0))
			}
			e.SetMainBody(2)
		})

		It("shifts the main body index down when a lower body is deleted", func() {
			Expect(e.DeleteBody(0)).To(Succeed())
			i, ok := e.MainBodyIndex()
			Expect(ok).To(BeTrue())
			Expect(i).To(Equal(1))
			Expect(e.BodyCount()).To(Equal(3))
		})

		It("keeps the main body index when a higher body is deleted", func() {
			Expect(e.DeleteBody(3)).To(Succeed())
			i, _ := e.MainBodyIndex()
			Expect(i).To(Equal(2))
		})

		It("clears the main body when it is deleted", func() {
			Expect(e.DeleteBody(2)).To(Succeed())
			_, ok := e.MainBodyIndex()
			Expect(ok).To(BeFalse())
		})

		It("reports out-of-range deletions and changes nothing", func() {
			err := e.DeleteBody(4)
			Expect(errors.Is(err, sim.ErrIndexOutOfRange)).To(BeTrue())
			Expect(e.BodyCount()).To(Equal(4))
			i, _ := e.MainBodyIndex()
			Expect(i).To(Equal(2))
		})

		It("clears bodies and the main body", func() {
			e.ClearBodies()
			Expect(e.BodyCount()).To(BeZero())
			_, ok := e.MainBodyIndex()
			Expect(ok).To(BeFalse())
		})
	})

	Describe("stepping", func() {
		It("keeps a two-body orbit bounded (scenario A)", func() {
			e := newEngine(nil)
			e.CreateBody(disc(1000, 40, 0, 0, 0, 0))
			e.CreateBody(disc(20, 15, 175, 0, 0, -80))
			e.SetMainBody(0)

			for i := 0; i < 100; i++ {
				rep := e.Step()
				Expect(rep.Merges).To(BeEmpty())
			}

			bodies := e.Bodies()
			Expect(bodies).To(HaveLen(2))
			Expect(bodies[0].Position.X).To(Equal(0.0))
			Expect(bodies[0].Position.Y).To(Equal(0.0))
			Expect(bodies[0].Main).To(BeTrue())

			d := math.Hypot(bodies[1].Position.X, bodies[1].Position.Y)
			Expect(math.IsNaN(d) || math.IsInf(d, 0)).To(BeFalse())
			Expect(d).To(BeNumerically(">", 55))
			Expect(d).To(BeNumerically("<", 400))
			Expect(e.Time()).To(BeNumerically("~", 1.0, 1e-9))
		})

		It("merges overlapping bodies in one step (scenario B)", func() {
			e := newEngine(nil)
			e.CreateBody(disc(5, 10, 0, 0, 0, 0))
			e.CreateBody(disc(5, 10, 5, 0, 0, 0))

			rep := e.Step()

			Expect(rep.Merges).To(HaveLen(1))
			bodies := e.Bodies()
			Expect(bodies).To(HaveLen(1))
			Expect(bodies[0].Mass).To(Equal(10.0))
			Expect(bodies[0].Radius).To(BeNumerically("~", math.Sqrt(200), 1e-9))
			Expect(bodies[0].Main).To(BeTrue())
			Expect(bodies[0].Position.X).To(BeNumerically("~", 0, 1e-12))
		})

		It("advances time on an empty engine (scenario C)", func() {
			e := newEngine(func(c *sim.Config) { c.Speed = 2 })

			rep := e.Step()

			Expect(rep.Merges).To(BeEmpty())
			Expect(rep.Skipped).NotTo(HaveOccurred())
			Expect(e.Time()).To(BeNumerically("~", 0.02, 1e-15))
			Expect(e.BodyCount()).To(BeZero())
		})

		It("moves the main designation onto a merge result", func() {
			e := newEngine(nil)
			e.CreateBody(disc(1, 1, -500, 0, 0, 0))
			e.CreateBody(disc(50, 5, 100, 0, 0, 0))
			e.CreateBody(disc(5, 5, 103, 0, 0, 0))
			e.SetMainBody(1)

			e.Step()

			i, ok := e.MainBodyIndex()
			Expect(ok).To(BeTrue())
			Expect(i).To(Equal(1))
			bodies := e.Bodies()
			Expect(bodies[1].Mass).To(Equal(55.0))
			Expect(bodies[1].Position.X).To(Equal(0.0))
		})

		It("keeps the barycenter at the origin in center-of-mass mode", func() {
			e := newEngine(func(c *sim.Config) { c.AutoMainBody = false })
			e.CreateBody(disc(10, 1, 30, 20, 0, 1))
			e.CreateBody(disc(3, 1, -40, 5, 2, 0))
			e.CreateBody(disc(7, 1, 0, -60, -1, -1))

			for i := 0; i < 20; i++ {
				e.Step()
				var cx, cy, m float64
				for _, b := range e.Bodies() {
					cx += b.Mass * b.Position.X
					cy += b.Mass * b.Position.Y
					m += b.Mass
				}
				Expect(cx / m).To(BeNumerically("~", 0, 1e-9))
				Expect(cy / m).To(BeNumerically("~", 0, 1e-9))
			}
		})

		It("pins a lone body at the origin", func() {
			e := newEngine(nil)
			e.CreateBody(disc(3, 1, 12, -4, 5, 5))

			e.Step()

			b := e.Bodies()[0]
			Expect(b.Position.X).To(Equal(0.0))
			Expect(b.Position.Y).To(Equal(0.0))
			Expect(b.Velocity.X).To(Equal(5.0))
			Expect(b.Velocity.Y).To(Equal(5.0))
		})

		It("freezes dynamics at zero speed", func() {
			e := newEngine(nil)
			e.CreateBody(disc(100, 1, 0, 0, 0, 0))
			e.CreateBody(disc(1, 1, 50, 0, 0, 3))
			Expect(e.SetSpeed(0)).To(Succeed())

			e.Step()
			before := e.Bodies()
			e.Step()

			Expect(e.Bodies()).To(Equal(before))
			Expect(e.Time()).To(Equal(0.0))
		})

		It("never merges separated bodies", func() {
			e := newEngine(nil)
			e.CreateBody(disc(1000, 40, 0, 0, 0, 0))
			e.CreateBody(disc(20, 15, 175, 0, 0, -80))
			e.CreateBody(disc(5, 5, -200, 0, 0, 46))

			for i := 0; i < 10; i++ {
				Expect(e.Step().Merges).To(BeEmpty())
			}
			Expect(e.BodyCount()).To(Equal(3))
		})

		It("reports coincident bodies without failing the step", func() {
			e := newEngine(func(c *sim.Config) { c.AutoMainBody = false })
			e.CreateBody(disc(1, 0.5, 0, 0, 0, 0))
			e.CreateBody(disc(1, 0.5, 0, 0, 0, 0))
			Expect(e.SetMaxRadius(0.5)).To(Succeed())

			// equal positions overlap, so the pair is merged rather than skipped
			rep := e.Step()
			Expect(rep.Merges).To(HaveLen(1))
			Expect(rep.Skipped).NotTo(HaveOccurred())
		})
	})

	Describe("observers and headless runs", func() {
		It("notifies observers after every step", func() {
			e := newEngine(nil)
			e.CreateBody(disc(1, 1, 0, 0, 0, 0))

			var seen []uint64
			e.AddObserver(sim.ObserverFunc(func(s sim.Snapshot) {
				seen = append(seen, s.Diag.Step)
			}))

			e.Step()
			e.Step()
			Expect(seen).To(Equal([]uint64{1, 2}))
		})

		It("collects samples and metrics", func() {
			e := newEngine(nil)
			e.CreateBody(disc(1000, 40, 0, 0, 0, 0))
			e.CreateBody(disc(20, 15, 175, 0, 0, -80))
			m := &countMetric{}
			e.AddMetric(m)

			result, err := e.Run(context.Background(), 10, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.StepsTaken).To(Equal(10))
			Expect(result.Samples).To(HaveLen(3))
			Expect(result.Samples[2].Step).To(Equal(uint64(10)))
			Expect(result.Metrics).To(HaveKeyWithValue("count", 11.0))
		})

		It("rejects a non-positive step count", func() {
			_, err := newEngine(nil).Run(context.Background(), 0, 1)
			Expect(errors.Is(err, sim.ErrParameterBounds)).To(BeTrue())
		})

		It("stops at a cancelled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			result, err := newEngine(nil).Run(ctx, 10, 1)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(result.StepsTaken).To(BeZero())
		})

		It("runs an ensemble", func() {
			a := newEngine(nil)
			b := newEngine(func(c *sim.Config) { c.Dt = 0.02 })
			results, err := sim.NewEnsemble(a, b).Run(context.Background(), 5, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(a.Time()).To(BeNumerically("~", 0.05, 1e-12))
			Expect(b.Time()).To(BeNumerically("~", 0.10, 1e-12))
		})

		It("runs each ensemble member for its own step count", func() {
			a := newEngine(nil)
			b := newEngine(func(c *sim.Config) { c.Dt = 0.02 })
			results, err := sim.NewEnsemble(a, b).RunEach(context.Background(), []int{10, 5}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(results[0].StepsTaken).To(Equal(10))
			Expect(results[1].StepsTaken).To(Equal(5))
			Expect(a.Time()).To(BeNumerically("~", b.Time(), 1e-12))

			_, err = sim.NewEnsemble(a, b).RunEach(context.Background(), []int{1}, 1)
			Expect(errors.Is(err, sim.ErrParameterBounds)).To(BeTrue())
		})
	})
})

type countMetric struct{ n int }

func (c *countMetric) Name() string           { return "count" }
func (c *countMetric) Observe(_ sim.Snapshot) { c.n++ }
func (c *countMetric) Value() float64         { return float64(c.n) }
func (c *countMetric) Reset()                 { c.n = 0 }
