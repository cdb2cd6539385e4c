package aif

import (
	"errors"
	"testing"

	"dceaif/internal/models"
)

// gradientSeries builds a series whose per-voxel value is its flat index,
// constant in time, so the early mean map is an exact ramp
func gradientSeries(t, z, y, x int) *models.Series {
	s := models.NewSeries(t, z, y, x)
	n := s.Voxels()
	for ti := 0; ti < t; ti++ {
		for vi := 0; vi < n; vi++ {
			s.Data[ti*n+vi] = float64(vi)
		}
	}
	return s
}

// TestSelectBrightestVoxelsKeepsTopFraction verifies that roughly the
// requested fraction of voxels survives the percentile threshold
func TestSelectBrightestVoxelsKeepsTopFraction(t *testing.T) {
	s := gradientSeries(10, 10, 10, 10)

	mask, err := SelectBrightestVoxels(s, 5, 2)
	if err != nil {
		t.Fatalf("SelectBrightestVoxels failed: %v", err)
	}
	count := mask.Count()
	if count < 10 || count > 30 {
		t.Errorf("Expected roughly 2%% of 1000 voxels, got %d", count)
	}

	// The ramp makes the selection exactly the highest flat indices
	for vi, set := range mask.Data {
		if set && vi < 900 {
			t.Errorf("Expected only the brightest voxels selected, got index %d", vi)
		}
	}
}

// TestSelectBrightestVoxelsMonotoneInPercentile verifies that a larger
// percentile never selects fewer voxels
func TestSelectBrightestVoxelsMonotoneInPercentile(t *testing.T) {
	s := gradientSeries(8, 8, 8, 8)

	narrow, err := SelectBrightestVoxels(s, 4, 2)
	if err != nil {
		t.Fatalf("SelectBrightestVoxels failed: %v", err)
	}
	wide, err := SelectBrightestVoxels(s, 4, 10)
	if err != nil {
		t.Fatalf("SelectBrightestVoxels failed: %v", err)
	}
	if wide.Count() < narrow.Count() {
		t.Errorf("Expected the 10%% selection (%d) to contain the 2%% selection (%d)", wide.Count(), narrow.Count())
	}
	for vi := range narrow.Data {
		if narrow.Data[vi] && !wide.Data[vi] {
			t.Errorf("Voxel %d selected at 2%% but not at 10%%", vi)
		}
	}
}

// TestSelectBrightestVoxelsValidation verifies the parameter domain checks
func TestSelectBrightestVoxelsValidation(t *testing.T) {
	s := gradientSeries(6, 4, 4, 4)

	cases := []struct {
		name       string
		window     int
		percentile float64
	}{
		{"zero window", 0, 2},
		{"window equals T", 6, 2},
		{"window beyond T", 9, 2},
		{"zero percentile", 3, 0},
		{"percentile of 100", 3, 100},
	}
	for _, c := range cases {
		_, err := SelectBrightestVoxels(s, c.window, c.percentile)
		if err == nil {
			t.Errorf("%s: expected error, got none", c.name)
			continue
		}
		if !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("%s: expected ErrInvalidParameter, got %v", c.name, err)
		}
	}
}
