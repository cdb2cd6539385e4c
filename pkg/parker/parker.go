// Package parker implements the Parker population arterial input model
// and a bounded nonlinear least-squares fitter for it. The model is the
// sum of two Gaussian bolus peaks and an exponentially decaying sigmoid
// recirculation term, with ten free parameters.
package parker

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Parameters holds the ten Parker model parameters. Times are in minutes.
type Parameters struct {
	// A1, A2 are the scaling constants of the two Gaussian bolus peaks
	A1, A2 float64

	// T1, T2 are the centers of the two Gaussian bolus peaks
	T1, T2 float64

	// Sigma1, Sigma2 are the widths of the two Gaussian bolus peaks
	Sigma1, Sigma2 float64

	// Alpha and Beta are the amplitude and decay constant of the
	// recirculation term
	Alpha, Beta float64

	// S and Tau are the width and center of the recirculation sigmoid
	S, Tau float64
}

// DefaultInit is the fixed initial guess for the fit, taken from the
// published population average
func DefaultInit() Parameters {
	return Parameters{
		A1: 0.809, A2: 0.33,
		T1: 0.17046, T2: 0.365,
		Sigma1: 0.0563, Sigma2: 0.132,
		Alpha: 1.050, Beta: 0.1685,
		S: 38.078, Tau: 0.483,
	}
}

// Physiologically derived per-parameter bounds and optimizer scale factors,
// in the order A1, A2, T1, T2, sigma1, sigma2, alpha, beta, s, tau
var (
	lowerBounds = [10]float64{0, 0, 0.1, 0.2, 1e-9, 1e-9, 1e-3, 0, 0, 0}
	upperBounds = [10]float64{5, 5, 2, 2, 0.5, 0.7, 5.0, 1.17, 50, 1.5}
	paramScales = [10]float64{1, 1, 1, 1, 20, 10, 1, 1, 0.05, 1}
)

func (p Parameters) vector() [10]float64 {
	return [10]float64{p.A1, p.A2, p.T1, p.T2, p.Sigma1, p.Sigma2, p.Alpha, p.Beta, p.S, p.Tau}
}

func fromVector(x [10]float64) Parameters {
	return Parameters{
		A1: x[0], A2: x[1],
		T1: x[2], T2: x[3],
		Sigma1: x[4], Sigma2: x[5],
		Alpha: x[6], Beta: x[7],
		S: x[8], Tau: x[9],
	}
}

// clampToBounds projects the parameter vector onto the bounding box
func clampToBounds(x [10]float64) [10]float64 {
	for i := range x {
		if x[i] < lowerBounds[i] {
			x[i] = lowerBounds[i]
		}
		if x[i] > upperBounds[i] {
			x[i] = upperBounds[i]
		}
	}
	return x
}

// gaussianTerm evaluates A/(sigma*sqrt(2*pi)) * exp(-(t-T)^2 / (2*sigma^2))
func gaussianTerm(a, center, sigma, t float64) float64 {
	d := t - center
	return a / (sigma * math.Sqrt(2*math.Pi)) * math.Exp(-d*d/(2*sigma*sigma))
}

// Eval evaluates the model at time t (minutes)
func (p Parameters) Eval(t float64) float64 {
	recirculation := p.Alpha * math.Exp(-p.Beta*t) / (1 + math.Exp(-p.S*(t-p.Tau)))
	return gaussianTerm(p.A1, p.T1, p.Sigma1, t) +
		gaussianTerm(p.A2, p.T2, p.Sigma2, t) +
		recirculation
}

// Curve evaluates the model over every sample of the timeline (minutes)
func (p Parameters) Curve(timeline []float64) []float64 {
	out := make([]float64, len(timeline))
	for i, t := range timeline {
		out[i] = p.Eval(t)
	}
	return out
}

// FitResult holds the fitted parameter vector, the residual cost and the
// fitted curve over the fit timeline. The cost is half the sum of squared
// normalized residuals; its absolute value has no meaning outside one run,
// it is only used to rank candidate masks against each other.
type FitResult struct {
	// Params is the fitted parameter vector, within bounds
	Params Parameters

	// Cost is half the sum of squared residuals of the normalized curve
	Cost float64

	// Curve is the fitted model curve over the fit timeline
	Curve []float64

	// NormFactor is the maximum of the measured curve, used to normalize
	// the measurement before fitting
	NormFactor float64
}

// sumSquaredResiduals computes half the sum of squared residuals of the
// model against the normalized measurement
func sumSquaredResiduals(p Parameters, timeline, y []float64) float64 {
	cost := 0.0
	for i, t := range timeline {
		r := p.Eval(t) - y[i]
		cost += r * r
	}
	return 0.5 * cost
}

// normalize divides the measured curve by its own maximum so the optimizer
// always starts near unit amplitude. Returns an error signal (false) for
// degenerate curves whose maximum is not a positive finite value.
func normalize(measured []float64) ([]float64, float64, bool) {
	if len(measured) == 0 {
		return nil, 0, false
	}
	max := floats.Max(measured)
	if max <= 0 || math.IsNaN(max) || math.IsInf(max, 0) {
		return nil, 0, false
	}
	y := make([]float64, len(measured))
	for i, v := range measured {
		y[i] = v / max
	}
	return y, max, true
}
