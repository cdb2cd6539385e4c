package parker

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Fitter fits the Parker model to measured concentration curves with a
// bounded nonlinear least-squares objective. Bounds are enforced by
// projecting the parameter vector onto the bounding box inside the
// objective, and the per-parameter scale factors are applied by letting
// the optimizer work in scaled coordinates.
type Fitter struct {
	// Tolerance is the absolute function convergence tolerance. Loose
	// tolerances (around 1e-3) are sufficient: the cost only ranks
	// candidate masks against each other.
	Tolerance float64

	// MaxIterations bounds the optimizer's iteration count
	MaxIterations int
}

// NewFitter creates a fitter with the given convergence tolerance and
// iteration bound
func NewFitter(tolerance float64, maxIterations int) *Fitter {
	return &Fitter{
		Tolerance:     tolerance,
		MaxIterations: maxIterations,
	}
}

// Fit fits the Parker model to the measured curve sampled at the given
// timeline (in minutes). The measurement is normalized by its own maximum
// before fitting. Returns an error for degenerate input (empty curve, or
// a curve whose maximum is not positive) and when the optimizer fails.
func (f *Fitter) Fit(measured, timeline []float64) (*FitResult, error) {
	if len(measured) != len(timeline) {
		return nil, fmt.Errorf("curve has %d samples but timeline has %d", len(measured), len(timeline))
	}
	y, normFactor, ok := normalize(measured)
	if !ok {
		return nil, fmt.Errorf("degenerate curve: maximum is not a positive finite value")
	}

	// Optimize in scaled coordinates u = x * scale
	problem := optimize.Problem{
		Func: func(u []float64) float64 {
			var x [10]float64
			for i := range x {
				x[i] = u[i] / paramScales[i]
			}
			return sumSquaredResiduals(fromVector(clampToBounds(x)), timeline, y)
		},
	}

	init := DefaultInit().vector()
	u0 := make([]float64, 10)
	for i := range u0 {
		u0[i] = init[i] * paramScales[i]
	}

	settings := &optimize.Settings{
		MajorIterations: f.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   f.Tolerance,
			Iterations: 25,
		},
	}

	result, err := optimize.Minimize(problem, u0, settings, &optimize.NelderMead{})
	if err != nil {
		return nil, fmt.Errorf("parker fit did not converge: %w", err)
	}
	if math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return nil, fmt.Errorf("parker fit diverged to a non-finite cost")
	}

	var x [10]float64
	for i := range x {
		x[i] = result.X[i] / paramScales[i]
	}
	params := fromVector(clampToBounds(x))

	return &FitResult{
		Params:     params,
		Cost:       result.F,
		Curve:      params.Curve(timeline),
		NormFactor: normFactor,
	}, nil
}
