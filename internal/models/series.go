package models

// Spacing holds the physical voxel spacing in mm along each axis
type Spacing struct {
	// Z is the inter-slice spacing in mm
	Z float64

	// Y is the in-plane row spacing in mm
	Y float64

	// X is the in-plane column spacing in mm
	X float64
}

// VoxelSizeML returns the physical volume of one voxel in milliliters
func (s Spacing) VoxelSizeML() float64 {
	return s.Z * s.Y * s.X * 0.001
}

// Series represents a 4D dynamic contrast-enhanced time series.
// The volume data is stored as a flat 1D array in (t, z, y, x) order,
// matching the flat layout used for the 3D volumes.
type Series struct {
	// Data is the 4D volume data as a 1D array in (t, z, y, x) order
	Data []float64

	// T is the number of time samples
	T int

	// Z, Y, X are the spatial dimensions in voxels
	Z, Y, X int

	// Spacing is the physical voxel spacing in mm
	Spacing Spacing

	// Timeline holds the acquisition time offset of each sample in seconds
	Timeline []float64

	// PatientID is an opaque identifier carried through to the output
	PatientID string
}

// NewSeries allocates a zero-filled series with the given dimensions
func NewSeries(t, z, y, x int) *Series {
	return &Series{
		Data: make([]float64, t*z*y*x),
		T:    t,
		Z:    z,
		Y:    y,
		X:    x,
	}
}

// Voxels returns the number of voxels in a single 3D frame
func (s *Series) Voxels() int {
	return s.Z * s.Y * s.X
}

// VoxelIndex returns the flat index of a voxel within a 3D frame
func (s *Series) VoxelIndex(z, y, x int) int {
	return (z*s.Y+y)*s.X + x
}

// At returns the value at time t and spatial position (z, y, x)
func (s *Series) At(t, z, y, x int) float64 {
	return s.Data[t*s.Voxels()+s.VoxelIndex(z, y, x)]
}

// Set stores a value at time t and spatial position (z, y, x)
func (s *Series) Set(t, z, y, x int, v float64) {
	s.Data[t*s.Voxels()+s.VoxelIndex(z, y, x)] = v
}

// Frame returns the 3D volume at time t as a subslice of the backing array
func (s *Series) Frame(t int) []float64 {
	n := s.Voxels()
	return s.Data[t*n : (t+1)*n]
}

// Curve returns the time course of the voxel at flat frame index vi
func (s *Series) Curve(vi int) []float64 {
	n := s.Voxels()
	curve := make([]float64, s.T)
	for t := 0; t < s.T; t++ {
		curve[t] = s.Data[t*n+vi]
	}
	return curve
}

// Mask is a boolean 3D voxel mask with the same spatial dimensions
// as the series it was derived from
type Mask struct {
	// Data is the mask as a 1D array in (z, y, x) order
	Data []bool

	// Z, Y, X are the spatial dimensions in voxels
	Z, Y, X int
}

// NewMask allocates an all-false mask with the given dimensions
func NewMask(z, y, x int) *Mask {
	return &Mask{
		Data: make([]bool, z*y*x),
		Z:    z,
		Y:    y,
		X:    x,
	}
}

// Index returns the flat index of position (z, y, x)
func (m *Mask) Index(z, y, x int) int {
	return (z*m.Y+y)*m.X + x
}

// At reports whether the voxel at (z, y, x) is set
func (m *Mask) At(z, y, x int) bool {
	return m.Data[m.Index(z, y, x)]
}

// Set marks or clears the voxel at (z, y, x)
func (m *Mask) Set(z, y, x int, v bool) {
	m.Data[m.Index(z, y, x)] = v
}

// Count returns the number of set voxels
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Data {
		if v {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the mask
func (m *Mask) Clone() *Mask {
	out := NewMask(m.Z, m.Y, m.X)
	copy(out.Data, m.Data)
	return out
}

// BoundingBox is a half-open axis-aligned voxel box [Z0,Z1) x [Y0,Y1) x [X0,X1)
type BoundingBox struct {
	Z0, Y0, X0 int
	Z1, Y1, X1 int
}

// Volume returns the number of voxels covered by the box
func (b BoundingBox) Volume() int {
	return (b.Z1 - b.Z0) * (b.Y1 - b.Y0) * (b.X1 - b.X0)
}

// RegionCandidate is one connected component of the aligned candidate mask,
// annotated with geometric features during extraction and with fit results
// during the Parker model fitting stage
type RegionCandidate struct {
	// Label is the stable component identifier (1-based, ascending scan order)
	Label int

	// Mask covers exactly the voxels of this component
	Mask *Mask

	// BBox is the component's bounding box
	BBox BoundingBox

	// VoxelCount is the number of voxels in the component
	VoxelCount int

	// AreaML is the physical volume of the component in milliliters
	AreaML float64

	// ConvexAreaML is the physical volume of the per-slice convex hull in milliliters
	ConvexAreaML float64

	// BBoxAreaML is the physical volume of the bounding box in milliliters
	BBoxAreaML float64

	// Extent is the ratio of component voxels to bounding-box voxels
	Extent float64

	// MeanIntensity is the mean intensity over the component's voxels
	MeanIntensity float64

	// Solidity is the ratio of component volume to convex volume
	Solidity float64

	// Cost is the Parker fit cost, NaN until the candidate has been fitted
	Cost float64

	// T1, T2 are the fitted bolus arrival times, NaN until fitted
	T1, T2 float64
}

// DiagnosticRow is one row of the output diagnostic table.
// The best-performing candidate appears twice: once in the full listing
// and once in the best-candidate row carrying the refinement costs.
type DiagnosticRow struct {
	Label                  int     `csv:"label"`
	AreaML                 float64 `csv:"area_ml"`
	ConvexAreaML           float64 `csv:"convex_area_ml"`
	BBoxAreaML             float64 `csv:"bbox_area_ml"`
	Extent                 float64 `csv:"extent"`
	MeanIntensity          float64 `csv:"mean_intensity"`
	Solidity               float64 `csv:"solidity"`
	Cost                   float64 `csv:"cost"`
	T1                     float64 `csv:"t1"`
	T2                     float64 `csv:"t2"`
	CostAfterDilation      float64 `csv:"cost_after_dilation"`
	CostAfterRegionGrowing float64 `csv:"cost_after_region_growing"`
	Best                   bool    `csv:"best"`
	PatientID              string  `csv:"patient_id"`
}
