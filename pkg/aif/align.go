package aif

import (
	"fmt"

	"dceaif/internal/models"
)

// Alignment is the outcome of temporal peak alignment: the dominant
// contrast-arrival timestep, the mask of voxels whose peak falls on it,
// and the concentration values of those voxels at that timestep.
type Alignment struct {
	// Timestep is the dominant contrast-arrival timestep
	Timestep int

	// Mask retains the input-mask voxels whose peak equals Timestep
	Mask *models.Mask

	// Values holds the concentration of each retained voxel at Timestep,
	// zero elsewhere, as a flat (z, y, x) volume
	Values []float64
}

// AlignPeaks determines the dominant contrast-arrival timestep within the
// first window timesteps. For every masked voxel the timestep of its
// maximum concentration is found; voxels peaking at the first or last
// index of the window are discarded as boundary artifacts with ambiguous
// arrival time. The most frequent remaining peak timestep is the dominant
// one, with ties broken toward the earlier timestep. If the dominant
// timestep itself lies on the window boundary, the window carries no
// usable arrival signal and ErrTemporalAlignment is returned so the
// caller can retry with a larger window.
func AlignPeaks(series *models.Series, mask *models.Mask, window int) (*Alignment, error) {
	if window <= 1 || window > series.T {
		return nil, fmt.Errorf("%w: alignment window %d out of range (series has %d timesteps)",
			ErrInvalidParameter, window, series.T)
	}

	n := series.Voxels()

	// Per-voxel peak timestep within the window, masked voxels only
	peaks := make([]int, n)
	for vi := range peaks {
		peaks[vi] = -1
	}
	for vi, set := range mask.Data {
		if !set {
			continue
		}
		best, bestV := 0, series.Data[vi]
		for t := 1; t < window; t++ {
			if v := series.Data[t*n+vi]; v > bestV {
				best, bestV = t, v
			}
		}
		peaks[vi] = best
	}

	// Histogram of peak timesteps over voxels with unambiguous arrival
	hist := make([]int, window)
	retained := 0
	for _, p := range peaks {
		if p <= 0 || p >= window-1 {
			continue
		}
		hist[p]++
		retained++
	}
	if retained == 0 {
		return nil, fmt.Errorf("%w: no voxel peaks inside window of %d timesteps", ErrTemporalAlignment, window)
	}

	// First maximum wins on equal counts
	dominant := 0
	for t, c := range hist {
		if c > hist[dominant] {
			dominant = t
		}
	}
	if dominant == 0 || dominant >= window-1 {
		return nil, fmt.Errorf("%w: dominant arrival timestep %d lies on the boundary of the %d-timestep window",
			ErrTemporalAlignment, dominant, window)
	}

	out := &Alignment{
		Timestep: dominant,
		Mask:     models.NewMask(series.Z, series.Y, series.X),
		Values:   make([]float64, n),
	}
	for vi, p := range peaks {
		if p != dominant {
			continue
		}
		out.Mask.Data[vi] = true
		out.Values[vi] = series.Data[dominant*n+vi]
	}
	return out, nil
}
