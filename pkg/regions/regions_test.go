package regions

import (
	"math"
	"testing"

	"dceaif/internal/models"
)

// addBox marks a solid box of voxels on the mask
func addBox(m *models.Mask, z0, y0, x0, z1, y1, x1 int) {
	for z := z0; z < z1; z++ {
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				m.Set(z, y, x, true)
			}
		}
	}
}

// TestLabelSeparatesComponents verifies that disjoint blobs receive
// distinct labels in scan order
func TestLabelSeparatesComponents(t *testing.T) {
	m := models.NewMask(10, 10, 10)
	addBox(m, 1, 1, 1, 3, 3, 3)
	addBox(m, 6, 6, 6, 9, 9, 9)

	labels, count := Label(m)
	if count != 2 {
		t.Fatalf("Expected 2 components, got %d", count)
	}
	if got := labels[m.Index(1, 1, 1)]; got != 1 {
		t.Errorf("Expected first blob to carry label 1, got %d", got)
	}
	if got := labels[m.Index(7, 7, 7)]; got != 2 {
		t.Errorf("Expected second blob to carry label 2, got %d", got)
	}
	if got := labels[m.Index(0, 0, 0)]; got != 0 {
		t.Errorf("Expected background label 0, got %d", got)
	}
}

// TestLabelDiagonalConnectivity verifies that voxels touching only at a
// corner belong to the same component under 26-connectivity
func TestLabelDiagonalConnectivity(t *testing.T) {
	m := models.NewMask(4, 4, 4)
	m.Set(0, 0, 0, true)
	m.Set(1, 1, 1, true)
	m.Set(2, 2, 2, true)

	_, count := Label(m)
	if count != 1 {
		t.Errorf("Expected one diagonally connected component, got %d", count)
	}
}

// TestLabelMergesUShape verifies that components joined late in the scan
// are reconciled to a single label
func TestLabelMergesUShape(t *testing.T) {
	m := models.NewMask(1, 5, 5)
	// Two vertical arms joined by a bottom bar, scanned top first
	for y := 0; y < 4; y++ {
		m.Set(0, y, 0, true)
		m.Set(0, y, 4, true)
	}
	for x := 0; x < 5; x++ {
		m.Set(0, 4, x, true)
	}

	labels, count := Label(m)
	if count != 1 {
		t.Fatalf("Expected the U shape to form one component, got %d", count)
	}
	if labels[m.Index(0, 0, 0)] != labels[m.Index(0, 0, 4)] {
		t.Errorf("Expected both arms to share a label, got %d and %d",
			labels[m.Index(0, 0, 0)], labels[m.Index(0, 0, 4)])
	}
}

// TestExtractFiltersSmallRegions verifies that noise-sized blobs are
// discarded by the area threshold while larger regions survive
func TestExtractFiltersSmallRegions(t *testing.T) {
	m := models.NewMask(12, 12, 12)
	// Large blob: 6x6x6 = 216 voxels = 1.728 ml at 2 mm spacing
	addBox(m, 1, 1, 1, 7, 7, 7)
	// Noise blob: 2x2x2 = 8 voxels = 0.064 ml
	addBox(m, 9, 9, 9, 11, 11, 11)

	intensity := make([]float64, 12*12*12)
	for i := range intensity {
		intensity[i] = 1
	}
	spacing := models.Spacing{Z: 2, Y: 2, X: 2}

	cands := Extract(m, intensity, spacing, 1.0)
	if len(cands) != 1 {
		t.Fatalf("Expected 1 surviving candidate, got %d", len(cands))
	}
	c := cands[0]
	if c.VoxelCount != 216 {
		t.Errorf("Expected 216 voxels, got %d", c.VoxelCount)
	}
	if math.Abs(c.AreaML-216*0.008) > 1e-9 {
		t.Errorf("Expected area %.3f ml, got %.3f ml", 216*0.008, c.AreaML)
	}
	if math.Abs(c.MeanIntensity-1) > 1e-12 {
		t.Errorf("Expected mean intensity 1, got %f", c.MeanIntensity)
	}
}

// TestExtractFeatureTable verifies extent and solidity on a solid box,
// which is its own convex hull
func TestExtractFeatureTable(t *testing.T) {
	m := models.NewMask(8, 8, 8)
	addBox(m, 1, 1, 1, 5, 5, 5)

	intensity := make([]float64, 8*8*8)
	for i := range intensity {
		intensity[i] = 2.5
	}
	spacing := models.Spacing{Z: 1, Y: 1, X: 1}

	cands := Extract(m, intensity, spacing, 0.01)
	if len(cands) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(cands))
	}
	c := cands[0]
	if math.Abs(c.Extent-1) > 1e-12 {
		t.Errorf("Expected extent 1 for a solid box, got %f", c.Extent)
	}
	if math.Abs(c.Solidity-1) > 1e-12 {
		t.Errorf("Expected solidity 1 for a solid box, got %f", c.Solidity)
	}
	if c.BBox.Volume() != 64 {
		t.Errorf("Expected bounding box of 64 voxels, got %d", c.BBox.Volume())
	}
	if !math.IsNaN(c.Cost) {
		t.Errorf("Expected unfitted candidate cost to be NaN, got %f", c.Cost)
	}
}

// TestExtractEmptyMask verifies that an empty mask yields no candidates
func TestExtractEmptyMask(t *testing.T) {
	m := models.NewMask(4, 4, 4)
	intensity := make([]float64, 4*4*4)
	if cands := Extract(m, intensity, models.Spacing{Z: 1, Y: 1, X: 1}, 0); cands != nil {
		t.Errorf("Expected no candidates for an empty mask, got %d", len(cands))
	}
}

// TestMeanIntensityOfMatchesExtract verifies that the standalone mean
// agrees with the per-region mean computed during extraction
func TestMeanIntensityOfMatchesExtract(t *testing.T) {
	m := models.NewMask(6, 6, 6)
	addBox(m, 1, 1, 1, 4, 4, 4)

	intensity := make([]float64, 6*6*6)
	for i := range intensity {
		intensity[i] = float64(i % 7)
	}

	cands := Extract(m, intensity, models.Spacing{Z: 2, Y: 2, X: 2}, 0.01)
	if len(cands) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(cands))
	}
	got := MeanIntensityOf(intensity, cands[0].Mask)
	if math.Abs(got-cands[0].MeanIntensity) > 1e-12 {
		t.Errorf("Expected mean %f, got %f", cands[0].MeanIntensity, got)
	}

	if MeanIntensityOf(intensity, models.NewMask(6, 6, 6)) != 0 {
		t.Errorf("Expected zero mean for an empty mask")
	}
}

// TestMeanCurve verifies curve averaging over a two-voxel mask
func TestMeanCurve(t *testing.T) {
	s := models.NewSeries(3, 1, 1, 2)
	// Voxel 0: 1, 2, 3; voxel 1: 3, 4, 5
	for ti := 0; ti < 3; ti++ {
		s.Set(ti, 0, 0, 0, float64(ti+1))
		s.Set(ti, 0, 0, 1, float64(ti+3))
	}
	m := models.NewMask(1, 1, 2)
	m.Set(0, 0, 0, true)
	m.Set(0, 0, 1, true)

	curve := MeanCurve(s, m)
	want := []float64{2, 3, 4}
	for i := range want {
		if math.Abs(curve[i]-want[i]) > 1e-12 {
			t.Errorf("Expected curve[%d] = %f, got %f", i, want[i], curve[i])
		}
	}
}
