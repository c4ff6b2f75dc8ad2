package element

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates element parameters that cannot be tracked with.
	ErrInvalidConfig = errors.New("element: invalid configuration")

	// ErrNoFieldMap indicates an electron lens built without a field map.
	ErrNoFieldMap = errors.New("element: field map is required")
)

// ConfigError reports the parameter that failed validation.
type ConfigError struct {
	Field string
	Value float64
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("element: %s=%g: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func invalid(field string, value float64, reason string) error {
	return &ConfigError{Field: field, Value: value, Err: fmt.Errorf("%w: %s", ErrInvalidConfig, reason)}
}
