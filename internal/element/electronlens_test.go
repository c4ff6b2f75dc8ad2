package element_test

import (
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/elens/internal/compute"
	"github.com/san-kum/elens/internal/constants"
	"github.com/san-kum/elens/internal/element"
	"github.com/san-kum/elens/internal/fieldmap"
	"github.com/san-kum/elens/internal/particles"
)

func protons() particles.Reference {
	ref, err := particles.NewReference(constants.ProtonMassEV, 1, 450e9)
	Expect(err).NotTo(HaveOccurred())
	return ref
}

func grid3x3() fieldmap.Geometry {
	return fieldmap.Geometry{Dx: 1, Dy: 1, Dz: 1, Nx: 3, Ny: 3, Nz: 1}
}

var _ = Describe("ElectronBeta", func() {
	It("is negative and below light speed", func() {
		beta, err := element.ElectronBeta(10e3)
		Expect(err).NotTo(HaveOccurred())
		Expect(beta).To(BeNumerically("<", 0))
		Expect(beta).To(BeNumerically(">", -1))
	})

	It("matches the relativistic momentum-energy relation", func() {
		v := 1.0e6
		beta, err := element.ElectronBeta(v)
		Expect(err).NotTo(HaveOccurred())

		etot := v + constants.ElectronMassEV
		gamma := etot / constants.ElectronMassEV
		Expect(beta).To(BeNumerically("~", -math.Sqrt(1-1/(gamma*gamma)), 1e-12))
	})

	DescribeTable("rejects non-physical voltages",
		func(v float64) {
			_, err := element.ElectronBeta(v)
			Expect(err).To(MatchError(element.ErrInvalidConfig))
		},
		Entry("zero", 0.0),
		Entry("negative", -5e3),
		Entry("nan", math.NaN()),
		Entry("inf", math.Inf(1)),
	)
})

var _ = Describe("KickFactor", func() {
	var betaE float64
	var ref particles.Reference

	BeforeEach(func() {
		var err error
		betaE, err = element.ElectronBeta(10e3)
		Expect(err).NotTo(HaveOccurred())
		ref = protons()
	})

	factor := func(current, length float64) float64 {
		return element.KickFactor(current, length, ref.Q0, ref.Mass0, ref.Beta0, ref.Gamma0, betaE)
	}

	It("is odd in the current", func() {
		Expect(factor(-1.2, 2)).To(Equal(-factor(1.2, 2)))
	})

	It("is linear in the length", func() {
		Expect(factor(1, 4)).To(Equal(2 * factor(1, 2)))
		Expect(factor(1, 3)).To(BeNumerically("~", 3*factor(1, 1), 1e-12*math.Abs(factor(1, 3))))
	})

	It("vanishes for zero current or length", func() {
		Expect(factor(0, 1)).To(BeZero())
		Expect(factor(1, 0)).To(BeZero())
	})

	It("matches the closed form", func() {
		expected := -(1.0 * 2.0 * constants.QElem * ref.Q0) /
			(ref.Mass0 * constants.QElem * ref.Beta0 * ref.Gamma0 * constants.CLight) *
			(1 - ref.Beta0*betaE) / betaE
		Expect(factor(1, 2)).To(Equal(expected))
	})
})

var _ = Describe("ElectronLens", func() {
	var ref particles.Reference

	BeforeEach(func() {
		ref = protons()
	})

	Describe("construction", func() {
		var fm *fieldmap.FieldMap

		BeforeEach(func() {
			var err error
			fm, err = fieldmap.Uniform(grid3x3(), 1, 1)
			Expect(err).NotTo(HaveOccurred())
		})

		It("requires a field map", func() {
			_, err := element.NewElectronLens(element.ElectronLensConfig{Length: 1, Current: 1, Voltage: 1e4})
			Expect(err).To(MatchError(element.ErrNoFieldMap))
		})

		DescribeTable("rejects invalid parameters",
			func(cfg element.ElectronLensConfig, field string) {
				cfg.FieldMap = fm
				_, err := element.NewElectronLens(cfg)
				Expect(err).To(MatchError(element.ErrInvalidConfig))

				var ce *element.ConfigError
				Expect(errors.As(err, &ce)).To(BeTrue())
				Expect(ce.Field).To(Equal(field))
			},
			Entry("negative length", element.ElectronLensConfig{Length: -1, Current: 1, Voltage: 1e4}, "length"),
			Entry("nan current", element.ElectronLensConfig{Length: 1, Current: math.NaN(), Voltage: 1e4}, "current"),
			Entry("zero voltage", element.ElectronLensConfig{Length: 1, Current: 1, Voltage: 0}, "voltage"),
			Entry("unknown boundary", element.ElectronLensConfig{Length: 1, Current: 1, Voltage: 1e4, Boundary: 7}, "boundary"),
		)

		It("exposes its parameters", func() {
			el, err := element.NewElectronLens(element.ElectronLensConfig{Length: 2, Current: 3, Voltage: 1e4, FieldMap: fm})
			Expect(err).NotTo(HaveOccurred())
			Expect(el.Name()).To(Equal("electron_lens"))
			Expect(el.Length()).To(Equal(2.0))
			Expect(el.Current()).To(Equal(3.0))
			Expect(el.Voltage()).To(Equal(1e4))
			Expect(el.ElectronBeta()).To(BeNumerically("<", 0))
		})
	})

	Describe("tracking on a uniform 3x3 map", func() {
		var el *element.ElectronLens

		BeforeEach(func() {
			fm, err := fieldmap.Uniform(grid3x3(), 2.0, 0.0)
			Expect(err).NotTo(HaveOccurred())
			el, err = element.NewElectronLens(element.ElectronLensConfig{
				Length: 1.0, Current: 1.0, Voltage: 1.0e6, FieldMap: fm,
				Backend: compute.NewSerialBackend(),
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("kicks px by factor*dphi/dx and leaves py unchanged", func() {
			p, err := particles.FromCoordinates(ref, []float64{0.5}, []float64{0.5})
			Expect(err).NotTo(HaveOccurred())

			el.Track(p)

			Expect(p.Px[0]).To(Equal(el.Factor(ref) * 2.0))
			Expect(p.Py[0]).To(BeZero())
			Expect(p.X[0]).To(Equal(0.5))
			Expect(p.Y[0]).To(Equal(0.5))
		})

		It("gives the same kick anywhere in the grid", func() {
			xs := []float64{0, 0.1, 1, 1.7, 2, 0.33}
			ys := []float64{0, 1.9, 1, 0.2, 2, 1.41}
			p, err := particles.FromCoordinates(ref, xs, ys)
			Expect(err).NotTo(HaveOccurred())

			el.Track(p)

			for i := range xs {
				Expect(p.Px[i]).To(Equal(el.Factor(ref) * 2.0))
			}
		})

		It("applies the kick again on every call", func() {
			p, _ := particles.FromCoordinates(ref, []float64{1}, []float64{1})
			el.Track(p)
			el.Track(p)
			Expect(p.Px[0]).To(Equal(2 * el.Factor(ref) * 2.0))
		})

		It("skips particles that are already lost", func() {
			p, _ := particles.FromCoordinates(ref, []float64{1, 1}, []float64{1, 1})
			p.MarkLost(1, -1)
			el.Track(p)
			Expect(p.Px[0]).NotTo(BeZero())
			Expect(p.Px[1]).To(BeZero())
		})
	})

	Describe("boundary policy", func() {
		var fm *fieldmap.FieldMap

		BeforeEach(func() {
			var err error
			gx := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
			fm, err = fieldmap.New(grid3x3(), gx, make([]float64, 9))
			Expect(err).NotTo(HaveOccurred())
		})

		It("clamps to the edge value by default", func() {
			el, err := element.NewElectronLens(element.ElectronLensConfig{Length: 1, Current: 1, Voltage: 1e4, FieldMap: fm})
			Expect(err).NotTo(HaveOccurred())

			p, _ := particles.FromCoordinates(ref, []float64{10}, []float64{-3})
			el.Track(p)

			Expect(p.Alive(0)).To(BeTrue())
			Expect(p.Px[0]).To(Equal(el.Factor(ref) * 3))
		})

		It("marks particles lost outside the grid when asked to", func() {
			el, err := element.NewElectronLens(element.ElectronLensConfig{
				Length: 1, Current: 1, Voltage: 1e4, FieldMap: fm, Boundary: fieldmap.BoundaryLost,
			})
			Expect(err).NotTo(HaveOccurred())

			p, _ := particles.FromCoordinates(ref, []float64{10, 1, 2}, []float64{-3, 1, 2})
			el.Track(p)

			Expect(p.State[0]).To(Equal(particles.StateLostOnFieldMap))
			Expect(p.Px[0]).To(BeZero())
			Expect(p.Alive(1)).To(BeTrue())
			Expect(p.Px[1]).To(Equal(el.Factor(ref) * 5))
			Expect(p.Alive(2)).To(BeTrue(), "the last grid node is inside")
		})
	})

	Describe("batch independence", func() {
		var fm *fieldmap.FieldMap

		BeforeEach(func() {
			var err error
			geom := fieldmap.GridFromRange([2]float64{-4e-3, 4e-3}, [2]float64{-4e-3, 4e-3}, 81, 81)
			fm, err = fieldmap.Annular(geom, fieldmap.AnnularProfile{InnerRadius: 1e-3, OuterRadius: 2e-3})
			Expect(err).NotTo(HaveOccurred())
		})

		lens := func(b compute.Backend) *element.ElectronLens {
			el, err := element.NewElectronLens(element.ElectronLensConfig{
				Length: 2, Current: 5, Voltage: 10e3, FieldMap: fm, Backend: b,
			})
			Expect(err).NotTo(HaveOccurred())
			return el
		}

		It("gives identical per-particle results for any ordering and backend", func() {
			n := 3000
			beam := particles.NewGaussianBeam(ref, n, particles.Gaussian{SigmaX: 1.5e-3, SigmaY: 1.5e-3}, 11)
			perm := rand.New(rand.NewSource(5)).Perm(n)
			shuffled := beam.Permute(perm)

			lens(compute.NewSerialBackend()).Track(beam)
			lens(compute.NewCPUBackendWith(8, 16)).Track(shuffled)

			for i, j := range perm {
				Expect(shuffled.Px[i]).To(Equal(beam.Px[j]))
				Expect(shuffled.Py[i]).To(Equal(beam.Py[j]))
			}
		})

		It("focuses particles outside the electron beam towards the axis", func() {
			p, _ := particles.FromCoordinates(ref, []float64{3e-3, 0}, []float64{0, -3e-3})
			lens(compute.NewSerialBackend()).Track(p)

			// a proton is attracted by the electron space charge
			Expect(p.Px[0]).To(BeNumerically("<", 0))
			Expect(p.Py[1]).To(BeNumerically(">", 0))
		})
	})
})
