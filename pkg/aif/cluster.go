package aif

import (
	"fmt"

	"dceaif/internal/models"
	"dceaif/pkg/cluster"
)

// clusterCurves partitions the time courses of the final mask's voxels
// into the configured number of clusters and returns the mean curve of
// the cluster with the lowest full-timeline mean as the AIF. A clustering
// failure here is an internal consistency violation, not a recoverable
// runtime condition.
func (p *Pipeline) clusterCurves(series *models.Series, mask *models.Mask) ([]float64, []ClusterAssignment, error) {
	var voxelIndices []int
	var curves [][]float64
	for vi, set := range mask.Data {
		if !set {
			continue
		}
		voxelIndices = append(voxelIndices, vi)
		curves = append(curves, series.Curve(vi))
	}

	res, err := cluster.KMeans(curves, p.params.ClusterCount, p.params.ClusterMaxIterations)
	if err != nil {
		return nil, nil, fmt.Errorf("temporal clustering failed: %w", err)
	}
	summary, err := cluster.Summarize(res, p.params.BaselineSamples)
	if err != nil {
		return nil, nil, fmt.Errorf("temporal clustering failed: %w", err)
	}

	selected := cluster.SelectLowest(summary)
	p.logf("         Selected cluster %d of %d (%d voxels, full-timeline mean %.4f)",
		selected.ID, res.K, selected.Size, selected.FullMean)

	assignments := make([]ClusterAssignment, len(voxelIndices))
	for i, vi := range voxelIndices {
		assignments[i] = ClusterAssignment{VoxelIndex: vi, ClusterID: res.Assignments[i]}
	}
	return selected.Mean, assignments, nil
}
