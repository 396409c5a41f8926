package source

import (
	"context"
	"fmt"
	"math"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/geal-ai/radialinterp"
	"github.com/geal-ai/radialinterp/internal/ctxlog"
)

// Analytic is a field whose value at every lattice node is an HCL expression
// over lon, lat and t (the time slice index).
type Analytic struct {
	Lattice Lattice
	Times   int // time slices; values <= 1 give a 2D field
	Expr    hcl.Expression
}

// ParseExpression parses src as a standalone HCL expression, e.g.
// "20 + 0.5 * lat - abs(lon + 105)".
func ParseExpression(src string) (hcl.Expression, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "expression", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", radialinterp.ErrInvalidParameter, diags.Error())
	}
	return expr, nil
}

// Field evaluates the expression on the lattice. center and grid are unused.
func (a *Analytic) Field(ctx context.Context, _ radialinterp.GeoPoint, _ radialinterp.Grid) (*radialinterp.Field, error) {
	if a.Expr == nil {
		return nil, fmt.Errorf("%w: analytic field has no expression", radialinterp.ErrInvalidParameter)
	}
	lons, lats, err := a.Lattice.Axes()
	if err != nil {
		return nil, err
	}
	times := max(a.Times, 1)
	if err := checkSize(lons, lats, times); err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("evaluating analytic field", "lons", len(lons), "lats", len(lats), "times", times)

	evalCtx := &hcl.EvalContext{Functions: Functions()}
	slices := make([][]float64, times)
	for t := range slices {
		s := make([]float64, 0, len(lons)*len(lats))
		for _, lon := range lons {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for _, lat := range lats {
				evalCtx.Variables = map[string]cty.Value{
					"lon": cty.NumberFloatVal(lon),
					"lat": cty.NumberFloatVal(lat),
					"t":   cty.NumberIntVal(int64(t)),
				}
				v, err := evalNumber(a.Expr, evalCtx)
				if err != nil {
					return nil, fmt.Errorf("at lon=%g lat=%g t=%d: %w", lon, lat, t, err)
				}
				s = append(s, v)
			}
		}
		slices[t] = s
	}
	return stack(lons, lats, slices), nil
}

func evalNumber(expr hcl.Expression, evalCtx *hcl.EvalContext) (float64, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return 0, fmt.Errorf("%w: %s", radialinterp.ErrInvalidParameter, diags.Error())
	}
	val, err := convert.Convert(val, cty.Number)
	if err != nil {
		return 0, fmt.Errorf("%w: expression must be a number: %w", radialinterp.ErrInvalidParameter, err)
	}
	if val.IsNull() || !val.IsKnown() {
		return 0, fmt.Errorf("%w: expression produced no value", radialinterp.ErrInvalidParameter)
	}
	f, _ := val.AsBigFloat().Float64()
	return f, nil
}

// Functions is the function table available to analytic expressions.
func Functions() map[string]function.Function {
	return map[string]function.Function{
		"abs":    stdlib.AbsoluteFunc,
		"ceil":   stdlib.CeilFunc,
		"floor":  stdlib.FloorFunc,
		"log":    stdlib.LogFunc,
		"max":    stdlib.MaxFunc,
		"min":    stdlib.MinFunc,
		"pow":    stdlib.PowFunc,
		"signum": stdlib.SignumFunc,
		"sqrt":   unary(math.Sqrt),
		"exp":    unary(math.Exp),
		"sin":    unary(func(d float64) float64 { return math.Sin(d * math.Pi / 180) }),
		"cos":    unary(func(d float64) float64 { return math.Cos(d * math.Pi / 180) }),
	}
}

// unary lifts a float64 function into cty. Trigonometric entries take
// degrees, matching the lon/lat variables.
func unary(fn func(float64) float64) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{{Name: "x", Type: cty.Number}},
		Type:   function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			x, _ := args[0].AsBigFloat().Float64()
			y := fn(x)
			if math.IsNaN(y) || math.IsInf(y, 0) {
				return cty.NilVal, fmt.Errorf("result is not finite for %g", x)
			}
			return cty.NumberFloatVal(y), nil
		},
	})
}
