// Package morphology implements binary morphological operations and
// flood-fill region growing on 3D voxel masks. All operations use the
// full 3x3x3 structuring neighborhood (26-connectivity).
package morphology

import (
	"fmt"

	"dceaif/internal/models"
)

// offsets enumerates the 26 neighbors of the 3x3x3 neighborhood,
// excluding the center voxel
var offsets = func() [][3]int {
	var out [][3]int
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dz == 0 && dy == 0 && dx == 0 {
					continue
				}
				out = append(out, [3]int{dz, dy, dx})
			}
		}
	}
	return out
}()

// Erode returns a new mask in which a voxel is set only if it and all of
// its 26 neighbors are set in the input. Neighbors outside the volume
// count as unset, so set voxels on the volume boundary are removed.
func Erode(m *models.Mask) *models.Mask {
	out := models.NewMask(m.Z, m.Y, m.X)
	for z := 0; z < m.Z; z++ {
		for y := 0; y < m.Y; y++ {
		voxels:
			for x := 0; x < m.X; x++ {
				if !m.At(z, y, x) {
					continue
				}
				for _, d := range offsets {
					nz, ny, nx := z+d[0], y+d[1], x+d[2]
					if nz < 0 || nz >= m.Z || ny < 0 || ny >= m.Y || nx < 0 || nx >= m.X {
						continue voxels
					}
					if !m.At(nz, ny, nx) {
						continue voxels
					}
				}
				out.Set(z, y, x, true)
			}
		}
	}
	return out
}

// Dilate returns a new mask in which a voxel is set if it or any of its
// 26 neighbors is set in the input.
func Dilate(m *models.Mask) *models.Mask {
	out := m.Clone()
	for z := 0; z < m.Z; z++ {
		for y := 0; y < m.Y; y++ {
			for x := 0; x < m.X; x++ {
				if !m.At(z, y, x) {
					continue
				}
				for _, d := range offsets {
					nz, ny, nx := z+d[0], y+d[1], x+d[2]
					if nz < 0 || nz >= m.Z || ny < 0 || ny >= m.Y || nx < 0 || nx >= m.X {
						continue
					}
					out.Set(nz, ny, nx, true)
				}
			}
		}
	}
	return out
}

// Open applies erosion followed by dilation. Opening removes isolated
// noise voxels and thin spurs while preserving larger connected
// structures; applying it twice yields the same mask as applying it once.
func Open(m *models.Mask) *models.Mask {
	return Dilate(Erode(m))
}

// Flood grows a 26-connected region outward from the seed voxel over the
// scalar field, accepting every reachable voxel whose value lies within
// tolerance of the seed's value. The field is a flat (z, y, x) volume of
// the given dimensions. The grown region is bounded only by the volume,
// not by any prior mask.
func Flood(field []float64, z, y, x int, seed [3]int, tolerance float64) (*models.Mask, error) {
	if len(field) != z*y*x {
		return nil, fmt.Errorf("field has %d voxels, dimensions say %d", len(field), z*y*x)
	}
	sz, sy, sx := seed[0], seed[1], seed[2]
	if sz < 0 || sz >= z || sy < 0 || sy >= y || sx < 0 || sx >= x {
		return nil, fmt.Errorf("seed (%d,%d,%d) outside volume %dx%dx%d", sz, sy, sx, z, y, x)
	}

	out := models.NewMask(z, y, x)
	seedValue := field[out.Index(sz, sy, sx)]
	lo, hi := seedValue-tolerance, seedValue+tolerance

	queue := [][3]int{seed}
	out.Set(sz, sy, sx, true)
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, d := range offsets {
			nz, ny, nx := p[0]+d[0], p[1]+d[1], p[2]+d[2]
			if nz < 0 || nz >= z || ny < 0 || ny >= y || nx < 0 || nx >= x {
				continue
			}
			if out.At(nz, ny, nx) {
				continue
			}
			v := field[out.Index(nz, ny, nx)]
			if v < lo || v > hi {
				continue
			}
			out.Set(nz, ny, nx, true)
			queue = append(queue, [3]int{nz, ny, nx})
		}
	}

	return out, nil
}
