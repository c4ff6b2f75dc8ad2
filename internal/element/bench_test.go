package element

import (
	"testing"

	"github.com/san-kum/elens/internal/compute"
	"github.com/san-kum/elens/internal/constants"
	"github.com/san-kum/elens/internal/fieldmap"
	"github.com/san-kum/elens/internal/particles"
)

func benchmarkTrack(b *testing.B, backend compute.Backend) {
	geom := fieldmap.GridFromRange([2]float64{-5e-3, 5e-3}, [2]float64{-5e-3, 5e-3}, 201, 201)
	fm, err := fieldmap.Annular(geom, fieldmap.AnnularProfile{InnerRadius: 1e-3, OuterRadius: 2e-3})
	if err != nil {
		b.Fatal(err)
	}
	el, err := NewElectronLens(ElectronLensConfig{Length: 3, Current: 5, Voltage: 10e3, FieldMap: fm, Backend: backend})
	if err != nil {
		b.Fatal(err)
	}
	ref, _ := particles.NewReference(constants.ProtonMassEV, 1, 7e12)
	p := particles.NewGaussianBeam(ref, 100000, particles.Gaussian{SigmaX: 1e-3, SigmaY: 1e-3}, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		el.Track(p)
	}
}

func BenchmarkTrackSerial(b *testing.B) { benchmarkTrack(b, compute.NewSerialBackend()) }
func BenchmarkTrackCPU(b *testing.B)    { benchmarkTrack(b, compute.NewCPUBackend()) }
