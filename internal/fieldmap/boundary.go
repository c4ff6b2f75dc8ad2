package fieldmap

import "fmt"

// BoundaryPolicy selects what a beam element does with particles whose
// position falls outside the field map.
type BoundaryPolicy int

const (
	// BoundaryClamp kicks with the flat extrapolation of the edge values.
	BoundaryClamp BoundaryPolicy = iota
	// BoundaryLost marks the particle lost and leaves its momentum unchanged.
	BoundaryLost
)

func (b BoundaryPolicy) String() string {
	switch b {
	case BoundaryClamp:
		return "clamp"
	case BoundaryLost:
		return "lost"
	default:
		return fmt.Sprintf("BoundaryPolicy(%d)", int(b))
	}
}

// ParseBoundaryPolicy accepts "clamp" (or "") and "lost".
func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch s {
	case "", "clamp":
		return BoundaryClamp, nil
	case "lost":
		return BoundaryLost, nil
	default:
		return BoundaryClamp, fmt.Errorf("fieldmap: unknown boundary policy %q (want clamp or lost)", s)
	}
}
