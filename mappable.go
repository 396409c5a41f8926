package radialinterp

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Strategy selects how CreateMappable lays the flat samples into the dense
// radius × azimuth array.
type Strategy int

const (
	// StrategyAccumulate pairs every sample with an explicit (radius index,
	// azimuth index) and writes it through Accumulate. It is the default and
	// stays correct if the sample order ever stops being radius-major.
	StrategyAccumulate Strategy = iota

	// StrategyReshape reinterprets the samples as a row-major
	// len(Radii) × len(Azimuths) matrix without building indices. Use it
	// only when the samples are known to be in radius-major order.
	StrategyReshape
)

func (s Strategy) String() string {
	switch s {
	case StrategyAccumulate:
		return "accumulate"
	case StrategyReshape:
		return "reshape"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy maps "accumulate" or "reshape" to a Strategy. The empty
// string selects the default.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "accumulate":
		return StrategyAccumulate, nil
	case "reshape":
		return StrategyReshape, nil
	}
	return 0, fmt.Errorf("%w: unknown mappable strategy %q (want accumulate or reshape)", ErrInvalidParameter, s)
}

// Mappable is the contour-plot input: Array[i][j] is the sample at
// Radii[i], Azimuths[j], and (X[i][j], Y[i][j]) is its position on the unit
// circle.
type Mappable struct {
	Array *mat.Dense
	X     *mat.Dense
	Y     *mat.Dense
}

type mappableOptions struct {
	strategy Strategy
}

// MappableOption configures CreateMappable.
type MappableOption func(*mappableOptions)

// WithStrategy overrides the default StrategyAccumulate.
func WithStrategy(s Strategy) MappableOption {
	return func(o *mappableOptions) { o.strategy = s }
}

// CreateMappable builds the dense value array and Cartesian mesh for a grid
// whose innermost ring is the origin. values must be 1D and hold exactly one
// sample per grid node in radius-major order, i.e. the Values of an
// Interpolation over a 2D field (or one column of a time-stacked one).
func CreateMappable(grid Grid, values *Array, opts ...MappableOption) (*Mappable, error) {
	o := mappableOptions{strategy: StrategyAccumulate}
	for _, opt := range opts {
		opt(&o)
	}

	if err := values.Validate(); err != nil {
		return nil, err
	}
	if values.Ndim() != 1 {
		return nil, fmt.Errorf("%w: input data values must be 1D, got shape %v", ErrInvalidInput, values.Shape)
	}
	if !grid.HasOrigin() {
		return nil, fmt.Errorf("%w: starting radius must be zero for a contour mappable", ErrInvalidInput)
	}
	if len(grid.Azimuths) == 0 {
		return nil, fmt.Errorf("%w: grid has no azimuths", ErrInvalidInput)
	}
	outer := grid.Radii[len(grid.Radii)-1]
	if !(outer > 0) {
		return nil, fmt.Errorf("%w: outermost radius must be positive, got %g", ErrInvalidInput, outer)
	}
	nr, na := len(grid.Radii), len(grid.Azimuths)
	if len(values.Data) != nr*na {
		return nil, fmt.Errorf("%w: %d values for a %d x %d grid", ErrInvalidInput, len(values.Data), nr, na)
	}

	rho := make([]float64, nr)
	floats.ScaleTo(rho, 1/outer, grid.Radii)
	theta := make([]float64, na)
	for j, az := range grid.Azimuths {
		theta[j] = deg2rad(az)
	}

	var array *mat.Dense
	switch o.strategy {
	case StrategyAccumulate:
		idx := make([]Index, 0, nr*na)
		for i := 0; i < nr; i++ {
			for j := 0; j < na; j++ {
				idx = append(idx, Index{Row: i, Col: j})
			}
		}
		var err error
		if array, err = Accumulate(idx, values.Data); err != nil {
			return nil, err
		}
	case StrategyReshape:
		array = mat.NewDense(nr, na, append([]float64(nil), values.Data...))
	default:
		return nil, fmt.Errorf("%w: unknown mappable strategy %v", ErrInvalidParameter, o.strategy)
	}

	th, rh := Meshgrid(theta, rho)
	x, y, err := Pol2CartDense(th, rh)
	if err != nil {
		return nil, err
	}
	return &Mappable{Array: array, X: x, Y: y}, nil
}
