// Package cluster partitions voxel time courses into k clusters with a
// deterministic k-means. There is no random initialization: centroids are
// seeded from evenly spaced observations, so identical input always
// produces identical clusters.
package cluster

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Result holds a completed clustering of n observations into k clusters
type Result struct {
	// K is the number of clusters
	K int

	// Assignments maps each observation index to a cluster id in [0, K)
	Assignments []int

	// Sizes holds the number of observations per cluster
	Sizes []int

	// Means holds the per-cluster mean observation
	Means [][]float64
}

// KMeans clusters the observations (all of equal length) into k clusters.
// Ties in the nearest-centroid assignment go to the lower cluster id.
// An empty cluster after convergence is reported as an error: the caller
// treats it as an internal consistency violation, not a retryable state.
func KMeans(observations [][]float64, k, maxIterations int) (*Result, error) {
	n := len(observations)
	if k < 1 {
		return nil, fmt.Errorf("cluster count %d out of range, must be at least 1", k)
	}
	if n == 0 {
		return nil, fmt.Errorf("no observations to cluster")
	}
	if k > n {
		return nil, fmt.Errorf("cluster count %d exceeds observation count %d", k, n)
	}
	dim := len(observations[0])
	for i, obs := range observations {
		if len(obs) != dim {
			return nil, fmt.Errorf("observation %d has %d samples, expected %d", i, len(obs), dim)
		}
	}

	// Seed centroids from evenly spaced observations
	centroids := make([][]float64, k)
	for c := 0; c < k; c++ {
		centroids[c] = append([]float64(nil), observations[c*n/k]...)
	}

	assignments := make([]int, n)
	sizes := make([]int, k)
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, obs := range observations {
			best, bestDist := 0, floats.Distance(obs, centroids[0], 2)
			for c := 1; c < k; c++ {
				if d := floats.Distance(obs, centroids[c], 2); d < bestDist {
					best, bestDist = c, d
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		// Recompute centroids; an empty cluster keeps its previous centroid
		for c := range sizes {
			sizes[c] = 0
		}
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, obs := range observations {
			floats.Add(sums[assignments[i]], obs)
			sizes[assignments[i]]++
		}
		for c := 0; c < k; c++ {
			if sizes[c] == 0 {
				continue
			}
			floats.Scale(1/float64(sizes[c]), sums[c])
			centroids[c] = sums[c]
		}
	}

	res := &Result{
		K:           k,
		Assignments: assignments,
		Sizes:       make([]int, k),
		Means:       make([][]float64, k),
	}
	for c := range res.Means {
		res.Means[c] = make([]float64, dim)
	}
	for i, obs := range observations {
		floats.Add(res.Means[res.Assignments[i]], obs)
		res.Sizes[res.Assignments[i]]++
	}
	total := 0
	for c := 0; c < k; c++ {
		if res.Sizes[c] == 0 {
			return nil, fmt.Errorf("cluster %d is empty after convergence", c)
		}
		floats.Scale(1/float64(res.Sizes[c]), res.Means[c])
		total += res.Sizes[c]
	}
	if total != n {
		return nil, fmt.Errorf("cluster sizes sum to %d, expected %d observations", total, n)
	}
	return res, nil
}

// Stats summarizes one cluster's mean curve
type Stats struct {
	// ID is the cluster id in [0, K)
	ID int

	// Size is the number of member observations
	Size int

	// Mean is the cluster's mean curve
	Mean []float64

	// BaselineMean is the mean of the leading baseline samples of Mean
	BaselineMean float64

	// FullMean is the mean over the whole of Mean
	FullMean float64
}

// Summarize computes per-cluster statistics. The baseline length must be
// positive and no longer than the curves.
func Summarize(res *Result, baseline int) ([]Stats, error) {
	if len(res.Means) == 0 {
		return nil, fmt.Errorf("clustering result has no clusters")
	}
	dim := len(res.Means[0])
	if baseline <= 0 || baseline > dim {
		return nil, fmt.Errorf("baseline length %d out of range for %d-sample curves", baseline, dim)
	}
	out := make([]Stats, res.K)
	for c := 0; c < res.K; c++ {
		out[c] = Stats{
			ID:           c,
			Size:         res.Sizes[c],
			Mean:         res.Means[c],
			BaselineMean: stat.Mean(res.Means[c][:baseline], nil),
			FullMean:     stat.Mean(res.Means[c], nil),
		}
	}
	return out, nil
}

// SelectLowest returns the cluster with the minimum full-timeline mean.
// Sustained high intensity indicates venous or partial-volume
// contamination, so the lowest-mean cluster is the purest arterial
// signal. Ties go to the lower cluster id.
func SelectLowest(stats []Stats) Stats {
	best := stats[0]
	for _, s := range stats[1:] {
		if s.FullMean < best.FullMean {
			best = s
		}
	}
	return best
}
