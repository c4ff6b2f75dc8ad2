package fieldmap

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGeometry indicates non-positive spacing or too few nodes on an axis.
	ErrInvalidGeometry = errors.New("fieldmap: invalid grid geometry")

	// ErrSizeMismatch indicates a value array whose length differs from nx*ny*nz.
	ErrSizeMismatch = errors.New("fieldmap: value array size does not match grid")

	// ErrIrregularGrid indicates loaded node coordinates that are not equispaced.
	ErrIrregularGrid = errors.New("fieldmap: grid nodes are not regularly spaced")

	// ErrMissingNode indicates a loaded map with a duplicate or missing node.
	ErrMissingNode = errors.New("fieldmap: duplicate or missing grid node")
)

// LoadError wraps a parse failure with the offending input line.
type LoadError struct {
	Line int
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("fieldmap: line %d: %v", e.Line, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
