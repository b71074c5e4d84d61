package physics_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/physics"
)

func vec(x, y float64) r2.Vec { return r2.Vec{X: x, Y: y} }

func storeOf(bodies ...body.Body) *body.Store {
	s := body.NewStore()
	for _, b := range bodies {
		s.Append(b)
	}
	return s
}

func at(s *body.Store, i int) body.Body {
	b, err := s.At(i)
	Expect(err).NotTo(HaveOccurred())
	return b
}

var _ = Describe("Collide", func() {
	It("merges an overlapping pair into one conserving body", func() {
		s := storeOf(
			body.MustNew(5, 10, vec(0, 0), vec(1, 0)),
			body.MustNew(5, 10, vec(5, 0), vec(0, 2)),
		)

		merges := physics.Collide(s, 100)

		Expect(merges).To(HaveLen(1))
		Expect(s.Len()).To(Equal(1))
		m := at(s, 0)
		Expect(m.Mass()).To(Equal(10.0))
		Expect(m.Radius()).To(BeNumerically("~", math.Sqrt(200), 1e-12))
		Expect(m.Position().X).To(BeNumerically("~", 2.5, 1e-12))
		Expect(m.Position().Y).To(BeNumerically("~", 0, 1e-12))
		Expect(m.Velocity().X).To(BeNumerically("~", 0.5, 1e-12))
		Expect(m.Velocity().Y).To(BeNumerically("~", 1.0, 1e-12))
	})

	It("caps the merged radius", func() {
		s := storeOf(
			body.MustNew(5, 10, vec(0, 0), vec(0, 0)),
			body.MustNew(5, 10, vec(5, 0), vec(0, 0)),
		)
		physics.Collide(s, 12)
		m := at(s, 0)
		Expect(m.Radius()).To(Equal(12.0))
	})

	It("does not merge touching bodies", func() {
		s := storeOf(
			body.MustNew(1, 1, vec(0, 0), vec(0, 0)),
			body.MustNew(1, 1, vec(2, 0), vec(0, 0)),
		)
		Expect(physics.Collide(s, 10)).To(BeEmpty())
		Expect(s.Len()).To(Equal(2))
	})

	It("leaves non-overlapping bodies untouched", func() {
		s := storeOf(
			body.MustNew(1, 1, vec(0, 0), vec(0, 1)),
			body.MustNew(2, 1, vec(10, 0), vec(0, -1)),
			body.MustNew(3, 1, vec(0, 10), vec(1, 0)),
		)
		before := s.Snapshot()

		for i := 0; i < 5; i++ {
			Expect(physics.Collide(s, 10)).To(BeEmpty())
		}
		Expect(s.Snapshot()).To(Equal(before))
	})

	It("keeps merging until no pair overlaps", func() {
		s := storeOf(
			body.MustNew(1, 1, vec(0, 0), vec(1, 0)),
			body.MustNew(1, 1, vec(1.5, 0), vec(0, 1)),
			body.MustNew(1, 1.2, vec(3.3, 0), vec(0, 0)),
		)
		p0 := physics.Momentum(s)

		merges := physics.Collide(s, 100)

		Expect(merges).To(HaveLen(2))
		Expect(s.Len()).To(Equal(1))
		got0 := at(s, 0)
		Expect(got0.Mass()).To(Equal(3.0))
		p1 := physics.Momentum(s)
		Expect(p1.X).To(BeNumerically("~", p0.X, 1e-12))
		Expect(p1.Y).To(BeNumerically("~", p0.Y, 1e-12))
	})

	It("reports consumed and resulting handles", func() {
		s := body.NewStore()
		ha, _ := s.Append(body.MustNew(1, 2, vec(0, 0), vec(0, 0)))
		hb, _ := s.Append(body.MustNew(1, 2, vec(1, 0), vec(0, 0)))
		hc, _ := s.Append(body.MustNew(1, 1, vec(50, 0), vec(0, 0)))

		merges := physics.Collide(s, 100)

		Expect(merges).To(HaveLen(1))
		Expect(merges[0].A).To(Equal(ha))
		Expect(merges[0].B).To(Equal(hb))
		_, ok := s.Resolve(ha)
		Expect(ok).To(BeFalse())
		_, ok = s.Resolve(hb)
		Expect(ok).To(BeFalse())

		i, ok := s.IndexOf(merges[0].Result)
		Expect(ok).To(BeTrue())
		Expect(i).To(Equal(1))
		i, ok = s.IndexOf(hc)
		Expect(ok).To(BeTrue())
		Expect(i).To(Equal(0))
	})
})

var _ = Describe("Integrate", func() {
	It("applies no self-interaction to a lone body", func() {
		s := storeOf(body.MustNew(7, 1, vec(1, 1), vec(2, -1)))

		Expect(physics.Integrate(s, 1, 0.5)).To(Succeed())

		b := at(s, 0)
		Expect(b.Velocity()).To(Equal(vec(2, -1)))
		Expect(b.Position()).To(Equal(vec(2, 0.5)))
	})

	It("kicks velocities before moving positions", func() {
		s := storeOf(
			body.MustNew(1, 0.1, vec(0, 0), vec(0, 0)),
			body.MustNew(4, 0.1, vec(2, 0), vec(0, 0)),
		)

		Expect(physics.Integrate(s, 1, 0.1)).To(Succeed())

		a, b := at(s, 0), at(s, 1)
		Expect(a.Velocity().X).To(BeNumerically("~", 0.1, 1e-12))
		Expect(b.Velocity().X).To(BeNumerically("~", -0.025, 1e-12))
		Expect(a.Position().X).To(BeNumerically("~", 0.01, 1e-12))
		Expect(b.Position().X).To(BeNumerically("~", 1.9975, 1e-12))
	})

	It("conserves momentum", func() {
		s := storeOf(
			body.MustNew(3, 0.1, vec(0, 0), vec(0, 1)),
			body.MustNew(1, 0.1, vec(4, 1), vec(1, 0)),
			body.MustNew(2, 0.1, vec(-3, 2), vec(0, 0)),
		)
		p0 := physics.Momentum(s)

		for i := 0; i < 50; i++ {
			Expect(physics.Integrate(s, 2, 0.01)).To(Succeed())
		}

		p1 := physics.Momentum(s)
		Expect(p1.X).To(BeNumerically("~", p0.X, 1e-9))
		Expect(p1.Y).To(BeNumerically("~", p0.Y, 1e-9))
	})

	It("skips coincident pairs instead of dividing by zero", func() {
		s := storeOf(
			body.MustNew(1, 1, vec(3, 3), vec(1, 0)),
			body.MustNew(1, 1, vec(3, 3), vec(0, 1)),
		)

		err := physics.Integrate(s, 1, 0.1)

		Expect(errors.Is(err, physics.ErrZeroSeparation)).To(BeTrue())
		var zs *physics.ZeroSeparationError
		Expect(errors.As(err, &zs)).To(BeTrue())
		Expect(zs.I).To(Equal(0))
		Expect(zs.J).To(Equal(1))
		got0 := at(s, 0)
		Expect(got0.Velocity()).To(Equal(vec(1, 0)))
		got1 := at(s, 1)
		Expect(got1.Velocity()).To(Equal(vec(0, 1)))
	})

	It("is a no-op on an empty store", func() {
		Expect(physics.Integrate(body.NewStore(), 1, 1)).To(Succeed())
	})
})

var _ = Describe("Center", func() {
	var (
		s    *body.Store
		main body.Handle
	)

	BeforeEach(func() {
		s = body.NewStore()
		s.Append(body.MustNew(1, 1, vec(-4, 2), vec(0, 0)))
		main, _ = s.Append(body.MustNew(3, 1, vec(4, 6), vec(0, 0)))
	})

	It("pins a fixed body to the origin", func() {
		physics.Center(s, physics.FixedBody{Handle: main})

		got1 := at(s, 1)
		Expect(got1.Position()).To(Equal(vec(0, 0)))
		got0 := at(s, 0)
		Expect(got0.Position()).To(Equal(vec(-8, -4)))
	})

	It("pins the barycenter in center-of-mass mode", func() {
		physics.Center(s, physics.CenterOfMass{})

		c := physics.Barycenter(s)
		Expect(c.X).To(BeNumerically("~", 0, 1e-12))
		Expect(c.Y).To(BeNumerically("~", 0, 1e-12))
		got0 := at(s, 0)
		Expect(got0.Position().X).To(BeNumerically("~", -6, 1e-12))
	})

	It("falls back to the barycenter for a stale handle", func() {
		Expect(s.RemoveHandle(main)).To(BeTrue())
		s.Append(body.MustNew(1, 1, vec(10, 0), vec(0, 0)))

		physics.Center(s, physics.FixedBody{Handle: main})

		c := physics.Barycenter(s)
		Expect(c.X).To(BeNumerically("~", 0, 1e-12))
		Expect(c.Y).To(BeNumerically("~", 0, 1e-12))
	})

	It("does nothing without bodies", func() {
		empty := body.NewStore()
		physics.Center(empty, physics.CenterOfMass{})
		Expect(empty.Len()).To(BeZero())
	})
})

var _ = Describe("Diagnostics", func() {
	It("computes energy, momentum and angular momentum", func() {
		s := storeOf(
			body.MustNew(2, 0.1, vec(1, 0), vec(0, 3)),
			body.MustNew(4, 0.1, vec(-1, 0), vec(0, 0)),
		)

		Expect(physics.Energy(s, 1)).To(BeNumerically("~", 0.5*2*9-2*4/2.0, 1e-12))
		Expect(physics.Momentum(s)).To(Equal(vec(0, 6)))
		Expect(physics.AngularMomentum(s)).To(BeNumerically("~", 6, 1e-12))
		Expect(physics.TotalMass(s)).To(Equal(6.0))
		Expect(physics.Spread(s)).To(Equal(1.0))
	})
})
