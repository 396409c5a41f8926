package radialinterp

import "errors"

// Error classes returned by the pipeline. Match them with errors.Is; the
// wrapped message names the violated constraint or the failing capability.
var (
	// ErrInvalidParameter reports a bad scalar grid parameter.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidInput reports a precondition violation on array shape,
	// dimensionality or coordinate range.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOutOfDomain reports a query coordinate outside the field's coverage.
	ErrOutOfDomain = errors.New("query outside field domain")

	// ErrExternalInterpolation wraps any other failure raised by a Geodesic
	// or Sampler implementation.
	ErrExternalInterpolation = errors.New("external interpolation failure")
)
