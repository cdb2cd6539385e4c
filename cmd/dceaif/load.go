package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/henghuang/nifti"

	"dceaif/internal/models"
)

// loadSeries reads a 4D NIfTI volume into the pipeline's series model.
// Voxel spacing comes from the header pixdim fields and the timeline is
// spaced by the repetition time (pixdim[4], seconds); a positive trOverride
// replaces the header value. When no patient identifier is given, the
// input filename without extensions is used.
func loadSeries(path, patientID string, trOverride float64) (*models.Series, error) {
	if patientID == "" {
		patientID = filepath.Base(path)
		patientID = strings.TrimSuffix(patientID, ".nii.gz")
		patientID = strings.TrimSuffix(patientID, ".nii")
	}

	var img nifti.Nifti1Image
	img.LoadImage(path, true)

	var hdr nifti.Nifti1Header
	hdr.LoadHeader(path)

	dims := img.GetDims()
	xm, ym, zm, tm := dims[0], dims[1], dims[2], dims[3]
	if xm <= 0 || ym <= 0 || zm <= 0 {
		return nil, fmt.Errorf("series has empty spatial dimensions %dx%dx%d", zm, ym, xm)
	}
	if tm < 2 {
		return nil, fmt.Errorf("series has %d time samples, need a dynamic acquisition", tm)
	}

	series := models.NewSeries(tm, zm, ym, xm)
	series.PatientID = patientID
	series.Spacing = models.Spacing{
		Z: float64(hdr.Pixdim[3]),
		Y: float64(hdr.Pixdim[2]),
		X: float64(hdr.Pixdim[1]),
	}

	// Repetition time; a header without timing information degrades to a
	// unit-spaced timeline
	tr := float64(hdr.Pixdim[4])
	if trOverride > 0 {
		tr = trOverride
	}
	if tr <= 0 {
		tr = 1
	}
	series.Timeline = make([]float64, tm)
	for t := 0; t < tm; t++ {
		series.Timeline[t] = float64(t) * tr
	}

	for t := 0; t < tm; t++ {
		for z := 0; z < zm; z++ {
			for y := 0; y < ym; y++ {
				for x := 0; x < xm; x++ {
					series.Set(t, z, y, x, float64(img.GetAt(x, y, z, t)))
				}
			}
		}
	}

	return series, nil
}
