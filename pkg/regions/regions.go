// Package regions extracts connected components from a voxel mask and
// computes the per-region feature table used to rank arterial candidates.
// Components are labeled with full 26-connectivity using a two-pass
// union-find scan.
package regions

import (
	"math"
	"sort"

	"github.com/theodesp/unionfind"
	"gonum.org/v1/gonum/stat"

	"dceaif/internal/models"
)

// priorOffsets enumerates the 13 neighbors of the 26-neighborhood that
// precede the current voxel in (z, y, x) scan order
var priorOffsets = func() [][3]int {
	var out [][3]int
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dz < 0 || (dz == 0 && dy < 0) || (dz == 0 && dy == 0 && dx < 0) {
					out = append(out, [3]int{dz, dy, dx})
				}
			}
		}
	}
	return out
}()

// Label assigns a component label to every set voxel of the mask, with
// background voxels labeled 0. Labels are compacted to 1..n in first-seen
// scan order, which makes them stable between runs on identical input.
func Label(m *models.Mask) (labels []int, count int) {
	labels = make([]int, len(m.Data))
	uf := unionfind.NewThreadSafeUnionFind(m.Count() + 1)
	next := 1

	// First pass: provisional labels, recording adjacencies between them
	for z := 0; z < m.Z; z++ {
		for y := 0; y < m.Y; y++ {
			for x := 0; x < m.X; x++ {
				if !m.At(z, y, x) {
					continue
				}
				best := 0
				for _, d := range priorOffsets {
					nz, ny, nx := z+d[0], y+d[1], x+d[2]
					if nz < 0 || ny < 0 || ny >= m.Y || nx < 0 || nx >= m.X {
						continue
					}
					if v := labels[m.Index(nz, ny, nx)]; v != 0 && (best == 0 || v < best) {
						best = v
					}
				}
				if best == 0 {
					labels[m.Index(z, y, x)] = next
					next++
					continue
				}
				labels[m.Index(z, y, x)] = best
				for _, d := range priorOffsets {
					nz, ny, nx := z+d[0], y+d[1], x+d[2]
					if nz < 0 || ny < 0 || ny >= m.Y || nx < 0 || nx >= m.X {
						continue
					}
					if v := labels[m.Index(nz, ny, nx)]; v != 0 && v != best {
						uf.Union(best, v)
					}
				}
			}
		}
	}

	// Reconcile provisional labels: every label in a union takes the
	// smallest label of its group as canonical
	canon := make([]int, next)
	groupMin := make(map[int]int)
	for v := 1; v < next; v++ {
		r := uf.Root(v)
		if r < 0 {
			r = v
		}
		if cur, ok := groupMin[r]; !ok || v < cur {
			groupMin[r] = v
		}
	}
	for v := 1; v < next; v++ {
		r := uf.Root(v)
		if r < 0 {
			r = v
		}
		canon[v] = groupMin[r]
	}

	// Second pass: rewrite to canonical labels, compacting to 1..n in
	// first-seen order
	compact := make(map[int]int)
	for i, v := range labels {
		if v == 0 {
			continue
		}
		c := canon[v]
		id, ok := compact[c]
		if !ok {
			count++
			id = count
			compact[c] = id
		}
		labels[i] = id
	}
	return labels, count
}

// Extract labels the mask and builds one RegionCandidate per component
// whose physical volume exceeds areaThresholdML. The intensity volume
// supplies the per-region mean intensity. Candidates are returned in
// ascending label order; fit fields are initialized to NaN placeholders.
func Extract(m *models.Mask, intensity []float64, spacing models.Spacing, areaThresholdML float64) []*models.RegionCandidate {
	labels, count := Label(m)
	if count == 0 {
		return nil
	}
	voxelML := spacing.VoxelSizeML()

	cands := make([]*models.RegionCandidate, count)
	for id := 1; id <= count; id++ {
		cands[id-1] = &models.RegionCandidate{
			Label: id,
			Mask:  models.NewMask(m.Z, m.Y, m.X),
			BBox: models.BoundingBox{
				Z0: m.Z, Y0: m.Y, X0: m.X,
			},
			Cost: math.NaN(),
			T1:   math.NaN(),
			T2:   math.NaN(),
		}
	}

	for z := 0; z < m.Z; z++ {
		for y := 0; y < m.Y; y++ {
			for x := 0; x < m.X; x++ {
				id := labels[m.Index(z, y, x)]
				if id == 0 {
					continue
				}
				c := cands[id-1]
				c.Mask.Set(z, y, x, true)
				c.VoxelCount++
				if z < c.BBox.Z0 {
					c.BBox.Z0 = z
				}
				if y < c.BBox.Y0 {
					c.BBox.Y0 = y
				}
				if x < c.BBox.X0 {
					c.BBox.X0 = x
				}
				if z+1 > c.BBox.Z1 {
					c.BBox.Z1 = z + 1
				}
				if y+1 > c.BBox.Y1 {
					c.BBox.Y1 = y + 1
				}
				if x+1 > c.BBox.X1 {
					c.BBox.X1 = x + 1
				}
			}
		}
	}

	kept := make([]*models.RegionCandidate, 0, count)
	for _, c := range cands {
		c.MeanIntensity = MeanIntensityOf(intensity, c.Mask)
		c.AreaML = float64(c.VoxelCount) * voxelML
		c.BBoxAreaML = float64(c.BBox.Volume()) * voxelML
		c.Extent = float64(c.VoxelCount) / float64(c.BBox.Volume())
		convex := convexVoxels(c.Mask, c.BBox)
		c.ConvexAreaML = float64(convex) * voxelML
		c.Solidity = float64(c.VoxelCount) / float64(convex)
		if c.AreaML > areaThresholdML {
			kept = append(kept, c)
		}
	}
	return kept
}

// MeanCurve averages the concentration time course over all voxels of the
// mask. The result has one value per time sample.
func MeanCurve(series *models.Series, m *models.Mask) []float64 {
	curve := make([]float64, series.T)
	n := 0
	for vi, set := range m.Data {
		if !set {
			continue
		}
		n++
		for t := 0; t < series.T; t++ {
			curve[t] += series.Data[t*series.Voxels()+vi]
		}
	}
	if n == 0 {
		return curve
	}
	for t := range curve {
		curve[t] /= float64(n)
	}
	return curve
}

// MeanIntensityOf computes the mean of the intensity volume over the mask
func MeanIntensityOf(intensity []float64, m *models.Mask) float64 {
	var vals []float64
	for vi, set := range m.Data {
		if set {
			vals = append(vals, intensity[vi])
		}
	}
	if len(vals) == 0 {
		return 0
	}
	return stat.Mean(vals, nil)
}

// convexVoxels approximates the region's convex volume as the sum over
// z-slices of the lattice points inside each slice's 2D convex hull.
// A full 3D hull buys nothing here: the convex volume only feeds the
// solidity ranking feature.
func convexVoxels(m *models.Mask, bbox models.BoundingBox) int {
	total := 0
	for z := bbox.Z0; z < bbox.Z1; z++ {
		var pts [][2]int
		for y := bbox.Y0; y < bbox.Y1; y++ {
			for x := bbox.X0; x < bbox.X1; x++ {
				if m.At(z, y, x) {
					pts = append(pts, [2]int{y, x})
				}
			}
		}
		if len(pts) == 0 {
			continue
		}
		hull := convexHull2D(pts)
		if len(hull) < 3 {
			total += len(pts)
			continue
		}
		// Count lattice points inside or on the hull
		for y := bbox.Y0; y < bbox.Y1; y++ {
			for x := bbox.X0; x < bbox.X1; x++ {
				if inConvexPolygon(hull, y, x) {
					total++
				}
			}
		}
	}
	return total
}

// convexHull2D computes the convex hull of lattice points with the
// Andrew monotone chain, returned in counter-clockwise order
func convexHull2D(pts [][2]int) [][2]int {
	if len(pts) <= 2 {
		return pts
	}
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})
	cross := func(o, a, b [2]int) int {
		return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
	}
	var lower [][2]int
	for _, p := range pts {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	var upper [][2]int
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

// inConvexPolygon reports whether lattice point (y, x) lies inside or on
// the counter-clockwise convex polygon
func inConvexPolygon(hull [][2]int, y, x int) bool {
	for i := range hull {
		a := hull[i]
		b := hull[(i+1)%len(hull)]
		cross := (b[0]-a[0])*(x-a[1]) - (b[1]-a[1])*(y-a[0])
		if cross < 0 {
			return false
		}
	}
	return true
}
