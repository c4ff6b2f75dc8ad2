package particles

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/elens/internal/constants"
)

func TestNewReference(t *testing.T) {
	ref, err := NewReference(constants.ProtonMassEV, 1, 450e9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(ref.Beta0*ref.Gamma0*ref.Mass0-ref.P0c)/ref.P0c > 1e-12 {
		t.Errorf("expected beta*gamma*m = p, got %g vs %g", ref.Beta0*ref.Gamma0*ref.Mass0, ref.P0c)
	}
	if ref.Beta0 <= 0 || ref.Beta0 >= 1 {
		t.Errorf("expected 0 < beta0 < 1, got %g", ref.Beta0)
	}
	if math.Abs(1/(ref.Gamma0*ref.Gamma0)-(1-ref.Beta0*ref.Beta0)) > 1e-15 {
		t.Errorf("gamma0 and beta0 inconsistent: gamma=%g beta=%g", ref.Gamma0, ref.Beta0)
	}
}

func TestNewReferenceInvalid(t *testing.T) {
	tests := []struct {
		name           string
		mass0, q0, p0c float64
	}{
		{"zero mass", 0, 1, 1e9},
		{"negative momentum", 1e9, 1, -1},
		{"zero charge", 1e9, 0, 1e9},
		{"nan mass", math.NaN(), 1, 1e9},
	}

	for _, tt := range tests {
		_, err := NewReference(tt.mass0, tt.q0, tt.p0c)
		if !errors.Is(err, ErrInvalidReference) {
			t.Errorf("%s: expected ErrInvalidReference, got %v", tt.name, err)
		}
	}
}

func TestNewBatchDefaults(t *testing.T) {
	p := New(Reference{}, 4)

	if p.Len() != 4 {
		t.Fatalf("expected 4 particles, got %d", p.Len())
	}
	if p.AliveCount() != 4 {
		t.Errorf("expected all alive, got %d", p.AliveCount())
	}
	for i := 0; i < 4; i++ {
		if p.Chi[i] != 1 {
			t.Errorf("expected chi 1, got %g", p.Chi[i])
		}
	}
}

func TestMarkLost(t *testing.T) {
	p := New(Reference{}, 3)
	p.MarkLost(1, StateLostOnFieldMap)
	p.MarkLost(2, 5)

	if p.Alive(1) || p.Alive(2) {
		t.Error("expected particles 1 and 2 lost")
	}
	if p.State[1] != -11 {
		t.Errorf("expected state -11, got %d", p.State[1])
	}
	if p.State[2] != -5 {
		t.Errorf("expected positive code to be negated, got %d", p.State[2])
	}
	if p.AliveCount() != 1 {
		t.Errorf("expected 1 alive, got %d", p.AliveCount())
	}
}

func TestFromCoordinates(t *testing.T) {
	p, err := FromCoordinates(Reference{}, []float64{1, 2}, []float64{3, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.X[1] != 2 || p.Y[1] != 4 || p.Px[1] != 0 {
		t.Errorf("unexpected particle 1: x=%g y=%g px=%g", p.X[1], p.Y[1], p.Px[1])
	}

	_, err = FromCoordinates(Reference{}, []float64{1}, nil)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestGaussianBeamReproducible(t *testing.T) {
	dist := Gaussian{SigmaX: 1e-3, SigmaY: 2e-3, SigmaPx: 1e-6, SigmaPy: 1e-6}
	a := NewGaussianBeam(Reference{}, 100, dist, 42)
	b := NewGaussianBeam(Reference{}, 100, dist, 42)

	for i := 0; i < 100; i++ {
		if a.X[i] != b.X[i] || a.Py[i] != b.Py[i] {
			t.Fatalf("particle %d differs between runs with the same seed", i)
		}
	}
}

func TestCloneAndPermute(t *testing.T) {
	p, _ := FromCoordinates(Reference{Q0: 1}, []float64{1, 2, 3}, []float64{4, 5, 6})
	c := p.Clone()
	c.X[0] = 99
	if p.X[0] != 1 {
		t.Error("clone shares storage with original")
	}

	q := p.Permute([]int{2, 0, 1})
	if q.X[0] != 3 || q.Y[1] != 4 || q.X[2] != 2 {
		t.Errorf("unexpected permutation: x=%v y=%v", q.X, q.Y)
	}
	if q.Ref.Q0 != 1 {
		t.Error("reference not carried over")
	}
}
