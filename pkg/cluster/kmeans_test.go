package cluster

import (
	"math"
	"testing"
)

// twoGroups builds observations around two well separated levels
func twoGroups(perGroup, dim int) [][]float64 {
	obs := make([][]float64, 0, 2*perGroup)
	for i := 0; i < perGroup; i++ {
		low := make([]float64, dim)
		high := make([]float64, dim)
		for d := 0; d < dim; d++ {
			low[d] = 1 + 0.01*float64(i)
			high[d] = 100 + 0.01*float64(i)
		}
		obs = append(obs, low, high)
	}
	return obs
}

// TestKMeansValidation verifies the parameter domain checks
func TestKMeansValidation(t *testing.T) {
	obs := [][]float64{{1, 2}, {3, 4}}

	if _, err := KMeans(obs, 0, 10); err == nil {
		t.Errorf("Expected error for k = 0, got none")
	}
	if _, err := KMeans(nil, 1, 10); err == nil {
		t.Errorf("Expected error for no observations, got none")
	}
	if _, err := KMeans(obs, 3, 10); err == nil {
		t.Errorf("Expected error for k > n, got none")
	}
	if _, err := KMeans([][]float64{{1, 2}, {3}}, 1, 10); err == nil {
		t.Errorf("Expected error for ragged observations, got none")
	}
}

// TestKMeansSingleCluster verifies that k = 1 yields the plain average
func TestKMeansSingleCluster(t *testing.T) {
	obs := [][]float64{
		{1, 2, 3},
		{3, 4, 5},
		{5, 6, 7},
	}
	res, err := KMeans(obs, 1, 100)
	if err != nil {
		t.Fatalf("KMeans failed: %v", err)
	}
	if res.Sizes[0] != 3 {
		t.Errorf("Expected all 3 observations in one cluster, got %d", res.Sizes[0])
	}
	want := []float64{3, 4, 5}
	for d := range want {
		if math.Abs(res.Means[0][d]-want[d]) > 1e-12 {
			t.Errorf("Expected mean[%d] = %f, got %f", d, want[d], res.Means[0][d])
		}
	}
}

// TestKMeansSeparatesGroups verifies that two well separated groups end
// up in distinct clusters
func TestKMeansSeparatesGroups(t *testing.T) {
	obs := twoGroups(10, 4)
	res, err := KMeans(obs, 2, 100)
	if err != nil {
		t.Fatalf("KMeans failed: %v", err)
	}

	// Observations alternate low, high; each level must map to one cluster
	lowCluster := res.Assignments[0]
	highCluster := res.Assignments[1]
	if lowCluster == highCluster {
		t.Fatalf("Expected the groups to split, both mapped to cluster %d", lowCluster)
	}
	for i, a := range res.Assignments {
		want := lowCluster
		if i%2 == 1 {
			want = highCluster
		}
		if a != want {
			t.Errorf("Expected observation %d in cluster %d, got %d", i, want, a)
		}
	}
}

// TestKMeansIsDeterministic verifies that repeated runs on the same input
// agree exactly
func TestKMeansIsDeterministic(t *testing.T) {
	obs := twoGroups(7, 5)

	first, err := KMeans(obs, 2, 100)
	if err != nil {
		t.Fatalf("KMeans failed: %v", err)
	}
	for run := 0; run < 3; run++ {
		again, err := KMeans(obs, 2, 100)
		if err != nil {
			t.Fatalf("KMeans failed on rerun: %v", err)
		}
		for i := range first.Assignments {
			if first.Assignments[i] != again.Assignments[i] {
				t.Fatalf("Run %d disagreed at observation %d: %d vs %d", run, i, first.Assignments[i], again.Assignments[i])
			}
		}
	}
}

// TestSummarizeAndSelectLowest verifies cluster statistics and the
// lowest-mean selection rule
func TestSummarizeAndSelectLowest(t *testing.T) {
	obs := twoGroups(5, 4)
	res, err := KMeans(obs, 2, 100)
	if err != nil {
		t.Fatalf("KMeans failed: %v", err)
	}

	stats, err := Summarize(res, 2)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("Expected 2 cluster summaries, got %d", len(stats))
	}

	best := SelectLowest(stats)
	if best.FullMean > 50 {
		t.Errorf("Expected the low group to be selected, got mean %f", best.FullMean)
	}
	for _, s := range stats {
		if s.FullMean < best.FullMean {
			t.Errorf("Cluster %d has a lower mean (%f) than the selected one (%f)", s.ID, s.FullMean, best.FullMean)
		}
	}
}

// TestSummarizeRejectsBadBaseline verifies the baseline range check
func TestSummarizeRejectsBadBaseline(t *testing.T) {
	res, err := KMeans([][]float64{{1, 2, 3}, {1, 2, 3}}, 1, 10)
	if err != nil {
		t.Fatalf("KMeans failed: %v", err)
	}
	if _, err := Summarize(res, 0); err == nil {
		t.Errorf("Expected error for baseline 0, got none")
	}
	if _, err := Summarize(res, 4); err == nil {
		t.Errorf("Expected error for baseline longer than the curves, got none")
	}
}

// TestSelectLowestTieBreak verifies that ties go to the lower cluster id
func TestSelectLowestTieBreak(t *testing.T) {
	stats := []Stats{
		{ID: 0, FullMean: 2.5},
		{ID: 1, FullMean: 2.5},
	}
	if got := SelectLowest(stats); got.ID != 0 {
		t.Errorf("Expected tie to select cluster 0, got %d", got.ID)
	}
}
