package aif

import (
	"testing"

	"dceaif/internal/models"
	"dceaif/pkg/parker"
)

// TestRefineMorphologyFallsBack verifies that a mask too thin to survive
// erosion keeps the input mask and cost
func TestRefineMorphologyFallsBack(t *testing.T) {
	series := models.NewSeries(10, 6, 6, 6)
	mask := models.NewMask(6, 6, 6)
	mask.Set(3, 3, 3, true)

	fitter := parker.NewFitter(1e-3, 100)
	fitTimeline := []float64{0, 0.1, 0.2, 0.3, 0.4}

	out := RefineMorphology(series, mask, 1.25, fitter, fitTimeline)
	if out.Accepted {
		t.Errorf("Expected the refinement to be rejected")
	}
	if out.Cost != 1.25 {
		t.Errorf("Expected the input cost to be kept, got %f", out.Cost)
	}
	if out.Mask != mask {
		t.Errorf("Expected the input mask to be kept")
	}
}

// TestGrowRegionFallsBack verifies the fallback paths of region growing
func TestGrowRegionFallsBack(t *testing.T) {
	series := models.NewSeries(10, 6, 6, 6)
	mask := models.NewMask(6, 6, 6)
	mask.Set(3, 3, 3, true)

	fitter := parker.NewFitter(1e-3, 100)
	fitTimeline := []float64{0, 0.1, 0.2, 0.3, 0.4}

	// Out-of-range grow window
	out := GrowRegion(series, mask, 2.5, fitter, fitTimeline, 0, 0.8)
	if out.Accepted || out.Cost != 2.5 || out.Mask != mask {
		t.Errorf("Expected fallback for grow window 0, got %+v", out)
	}

	// Empty mask
	empty := models.NewMask(6, 6, 6)
	out = GrowRegion(series, empty, 2.5, fitter, fitTimeline, 5, 0.8)
	if out.Accepted || out.Mask != empty {
		t.Errorf("Expected fallback for an empty mask, got %+v", out)
	}

	// All-zero concentration: the grown region cannot fit and is rejected
	out = GrowRegion(series, mask, 2.5, fitter, fitTimeline, 5, 0.8)
	if out.Accepted || out.Cost != 2.5 {
		t.Errorf("Expected fallback for a flat series, got %+v", out)
	}
}
