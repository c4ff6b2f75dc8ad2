package constants

import (
	"math"
	"testing"
)

func TestDerivedConstants(t *testing.T) {
	tests := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"pi", Pi, math.Pi},
		{"sqrt pi", SqrtPi, math.Sqrt(math.Pi)},
		{"two over sqrt pi", TwoOverSqrtPi, 2 / math.Sqrt(math.Pi)},
		{"sqrt two", SqrtTwo, math.Sqrt2},
		{"deg2rad", Deg2Rad, math.Pi / 180},
		{"rad2deg", Rad2Deg, 180 / math.Pi},
	}

	for _, tt := range tests {
		if math.Abs(tt.got-tt.expected) > 1e-15*math.Abs(tt.expected) {
			t.Errorf("%s: expected %.17g, got %.17g", tt.name, tt.expected, tt.got)
		}
	}
}

func TestRealEpsilon(t *testing.T) {
	if eps := math.Nextafter(1, 2) - 1; math.Abs(RealEpsilon-eps) > 1e-28 {
		t.Errorf("expected machine epsilon, got %g", RealEpsilon)
	}
}
