package aif

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"dceaif/internal/models"
	"dceaif/pkg/morphology"
	"dceaif/pkg/parker"
	"dceaif/pkg/regions"
)

// Refinement carries the outcome of one cost-gated refinement attempt.
// The returned mask and cost are always usable: when the attempt fails or
// does not improve the fit, they are the unchanged inputs.
type Refinement struct {
	// Mask is the accepted mask after the attempt
	Mask *models.Mask

	// Cost is the running best fit cost after the attempt
	Cost float64

	// Accepted reports whether the refined mask replaced the input mask
	Accepted bool
}

// refit fits the Parker model to the mask's mean curve over the fit
// window. Any failure is reported to the caller, which falls back to the
// previously accepted mask.
func refit(series *models.Series, m *models.Mask, fitter *parker.Fitter, fitTimeline []float64) (float64, error) {
	if m.Count() == 0 {
		return 0, fmt.Errorf("refined mask is empty")
	}
	curve := regions.MeanCurve(series, m)[:len(fitTimeline)]
	fit, err := fitter.Fit(curve, fitTimeline)
	if err != nil {
		return 0, err
	}
	return fit.Cost, nil
}

// RefineMorphology erodes the mask once with the 3x3x3 cube and dilates
// it once with the same element, smoothing the boundary and dropping thin
// spurs. The refined mask is accepted only if refitting its mean curve
// yields a strictly lower cost than bestCost; otherwise, and on any fit
// failure, the input mask and bestCost are kept.
func RefineMorphology(series *models.Series, mask *models.Mask, bestCost float64, fitter *parker.Fitter, fitTimeline []float64) Refinement {
	refined := morphology.Dilate(morphology.Erode(mask))
	cost, err := refit(series, refined, fitter, fitTimeline)
	if err != nil || cost >= bestCost {
		return Refinement{Mask: mask, Cost: bestCost}
	}
	return Refinement{Mask: refined, Cost: cost, Accepted: true}
}

// GrowRegion refines the mask by flood-fill region growing. A mean
// concentration map over the first growWindow timesteps is computed
// inside the mask; the brightest voxel of that map seeds a 26-connected
// flood fill across the whole volume. The fill tolerance is
// brightest - (mean - stddev), where mean and stddev are taken over the
// mask-interior voxels above the growQuantile quantile. The grown mask is
// accepted only if refitting strictly lowers the cost carried in from the
// previous stage; on any failure the input mask and cost are kept.
func GrowRegion(series *models.Series, mask *models.Mask, bestCost float64, fitter *parker.Fitter, fitTimeline []float64, growWindow int, growQuantile float64) Refinement {
	fallback := Refinement{Mask: mask, Cost: bestCost}

	if growWindow <= 0 || growWindow > series.T {
		return fallback
	}

	// Mean concentration over the leading timesteps, zero outside the mask
	n := series.Voxels()
	meanMap := make([]float64, n)
	for t := 0; t < growWindow; t++ {
		floats.Add(meanMap, series.Frame(t))
	}
	floats.Scale(1/float64(growWindow), meanMap)
	interior := make([]float64, 0, mask.Count())
	for vi := range meanMap {
		if mask.Data[vi] {
			interior = append(interior, meanMap[vi])
		} else {
			meanMap[vi] = 0
		}
	}
	if len(interior) == 0 {
		return fallback
	}

	// Brightest masked voxel seeds the fill; first occurrence wins
	seedIdx, brightest := 0, meanMap[0]
	for vi, v := range meanMap {
		if v > brightest {
			seedIdx, brightest = vi, v
		}
	}
	seed := [3]int{
		seedIdx / (series.Y * series.X),
		(seedIdx / series.X) % series.Y,
		seedIdx % series.X,
	}

	// Tolerance band from the bright interior of the mask
	q, err := stats.Percentile(stats.Float64Data(interior), growQuantile*100)
	if err != nil {
		return fallback
	}
	var bright []float64
	for _, v := range interior {
		if v > q {
			bright = append(bright, v)
		}
	}
	if len(bright) == 0 {
		return fallback
	}
	threshold := stat.Mean(bright, nil) - stat.PopStdDev(bright, nil)
	tolerance := brightest - threshold

	grown, err := morphology.Flood(meanMap, series.Z, series.Y, series.X, seed, tolerance)
	if err != nil {
		return fallback
	}

	cost, err := refit(series, grown, fitter, fitTimeline)
	if err != nil || cost >= bestCost {
		return fallback
	}
	return Refinement{Mask: grown, Cost: cost, Accepted: true}
}
