package tracking

import (
	"errors"
	"fmt"
)

var (
	ErrNoElements   = errors.New("tracking: no elements to track through")
	ErrInvalidTurns = errors.New("tracking: number of turns must be positive")
	ErrNoParticles  = errors.New("tracking: particle batch is nil")
)

// TrackingError reports the turn a run did not start because it was
// cancelled.
type TrackingError struct {
	Turn int
	Err  error
}

func (e *TrackingError) Error() string {
	return fmt.Sprintf("tracking: stopped before turn %d: %v", e.Turn, e.Err)
}

func (e *TrackingError) Unwrap() error {
	return e.Err
}
