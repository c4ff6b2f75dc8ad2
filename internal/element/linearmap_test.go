package element_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/elens/internal/element"
	"github.com/san-kum/elens/internal/particles"
)

var _ = Describe("LinearMap", func() {
	var ref particles.Reference

	BeforeEach(func() {
		ref = protons()
	})

	It("rejects non-positive beta functions", func() {
		_, err := element.NewLinearMap(element.LinearMapConfig{Qx: 0.31, Qy: 0.32, BetaX: 0, BetaY: 1})
		Expect(err).To(MatchError(element.ErrInvalidConfig))

		_, err = element.NewLinearMap(element.LinearMapConfig{Qx: math.NaN(), Qy: 0.32, BetaX: 1, BetaY: 1})
		Expect(err).To(MatchError(element.ErrInvalidConfig))
	})

	It("returns to the start after 1/Q turns", func() {
		m, err := element.NewLinearMap(element.LinearMapConfig{Qx: 0.25, Qy: 0.125, BetaX: 10, BetaY: 4})
		Expect(err).NotTo(HaveOccurred())
		qx, qy := m.Tunes()
		Expect(qx).To(Equal(0.25))
		Expect(qy).To(Equal(0.125))

		p, _ := particles.FromCoordinates(ref, []float64{1e-3}, []float64{-2e-3})
		p.Px[0], p.Py[0] = 1e-5, 3e-5

		for i := 0; i < 4; i++ {
			m.Track(p)
		}
		Expect(p.X[0]).To(BeNumerically("~", 1e-3, 1e-15))
		Expect(p.Px[0]).To(BeNumerically("~", 1e-5, 1e-15))

		for i := 0; i < 4; i++ {
			m.Track(p)
		}
		Expect(p.Y[0]).To(BeNumerically("~", -2e-3, 1e-15))
		Expect(p.Py[0]).To(BeNumerically("~", 3e-5, 1e-15))
	})

	It("preserves the Courant-Snyder invariant", func() {
		beta := 7.0
		m, err := element.NewLinearMap(element.LinearMapConfig{Name: "arc", Qx: 0.31, Qy: 0.32, BetaX: beta, BetaY: beta})
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Name()).To(Equal("arc"))

		p, _ := particles.FromCoordinates(ref, []float64{2e-3}, []float64{0})
		invariant := func() float64 {
			return p.X[0]*p.X[0]/beta + beta*p.Px[0]*p.Px[0]
		}
		j0 := invariant()
		for i := 0; i < 1000; i++ {
			m.Track(p)
		}
		Expect(invariant()).To(BeNumerically("~", j0, 1e-12*j0))
	})

	It("does not move lost particles", func() {
		m, _ := element.NewLinearMap(element.LinearMapConfig{Qx: 0.31, Qy: 0.32, BetaX: 1, BetaY: 1})
		p, _ := particles.FromCoordinates(ref, []float64{1}, []float64{1})
		p.MarkLost(0, particles.StateLostOnFieldMap)
		m.Track(p)
		Expect(p.X[0]).To(Equal(1.0))
		Expect(p.Px[0]).To(BeZero())
	})
})
