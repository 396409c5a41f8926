package radialinterp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Pol2Cart converts polar (theta radians, rho) to Cartesian (x, y), in the
// style of MATLAB's pol2cart. rho is normally on the unit circle [0, 1] but
// any real value is accepted.
func Pol2Cart(theta, rho float64) (x, y float64) {
	return rho * math.Cos(theta), rho * math.Sin(theta)
}

// Pol2CartDense applies Pol2Cart elementwise to same-shaped theta and rho
// matrices.
func Pol2CartDense(theta, rho mat.Matrix) (x, y *mat.Dense, err error) {
	r, c := theta.Dims()
	if rr, rc := rho.Dims(); rr != r || rc != c {
		return nil, nil, fmt.Errorf("%w: theta is %dx%d but rho is %dx%d", ErrInvalidInput, r, c, rr, rc)
	}
	x = mat.NewDense(r, c, nil)
	y = mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			xv, yv := Pol2Cart(theta.At(i, j), rho.At(i, j))
			x.Set(i, j, xv)
			y.Set(i, j, yv)
		}
	}
	return x, y, nil
}

// Meshgrid returns theta and rho matrices of shape len(rho) × len(theta)
// with th[i][j] = theta[j] and rh[i][j] = rho[i].
func Meshgrid(theta, rho []float64) (th, rh *mat.Dense) {
	th = mat.NewDense(len(rho), len(theta), nil)
	rh = mat.NewDense(len(rho), len(theta), nil)
	for i, r := range rho {
		th.SetRow(i, theta)
		for j := range theta {
			rh.Set(i, j, r)
		}
	}
	return th, rh
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
