package fluid

import (
	"errors"
	"fmt"
)

// Domain errors for grid construction and parameter validation.
var (
	// ErrGridTooSmall indicates a requested interior resolution below MinN.
	ErrGridTooSmall = errors.New("fluid: grid resolution below minimum")

	// ErrParameterBounds indicates a parameter value is outside its valid range.
	ErrParameterBounds = errors.New("fluid: parameter out of valid bounds")

	// ErrNonFinite indicates a NaN or Inf parameter value.
	ErrNonFinite = errors.New("fluid: parameter is not finite")
)

// ParamError wraps a validation failure with the offending parameter.
type ParamError struct {
	Name    string
	Value   float64
	Wrapped error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s=%g: %v", e.Name, e.Value, e.Wrapped)
}

func (e *ParamError) Unwrap() error {
	return e.Wrapped
}
