package aif

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"

	"dceaif/internal/models"
)

// earlyMeanMap computes the per-voxel mean over the first window frames
func earlyMeanMap(series *models.Series, window int) []float64 {
	mean := make([]float64, series.Voxels())
	for t := 0; t < window; t++ {
		floats.Add(mean, series.Frame(t))
	}
	floats.Scale(1/float64(window), mean)
	return mean
}

// SelectBrightestVoxels marks the voxels whose mean concentration over the
// first window timesteps exceeds the (100-percentile)-th percentile of the
// early mean map. With the default percentile of 2 this keeps roughly the
// brightest 2% of voxels, which in a contrast-enhanced series are dominated
// by vessels.
func SelectBrightestVoxels(series *models.Series, window int, percentile float64) (*models.Mask, error) {
	if window <= 0 || window >= series.T {
		return nil, fmt.Errorf("%w: selection window %d out of range (series has %d timesteps)",
			ErrInvalidParameter, window, series.T)
	}
	if percentile <= 0 || percentile >= 100 {
		return nil, fmt.Errorf("%w: percentile %g out of range (0, 100)", ErrInvalidParameter, percentile)
	}

	mean := earlyMeanMap(series, window)
	threshold, err := stats.Percentile(stats.Float64Data(mean), 100-percentile)
	if err != nil {
		return nil, fmt.Errorf("computing brightness threshold: %w", err)
	}

	mask := models.NewMask(series.Z, series.Y, series.X)
	for vi, v := range mean {
		if v > threshold {
			mask.Data[vi] = true
		}
	}
	return mask, nil
}
