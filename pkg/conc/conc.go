// Package conc converts a raw DCE intensity series into a relative
// contrast concentration series. The per-voxel baseline is the temporal
// mean of the leading pre-contrast samples; concentration is the scaled
// difference from that baseline, clamped at zero.
package conc

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	"dceaif/internal/models"
)

// Mode selects how the baseline-subtracted signal is normalized
type Mode int

const (
	// Absolute computes k * (I - I0)
	Absolute Mode = iota

	// Relative computes k * (I - I0) / I0
	Relative
)

// ParseMode maps the configuration strings "abs" and "rel" to a Mode.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ABS":
		return Absolute, nil
	case "REL":
		return Relative, nil
	}
	return 0, fmt.Errorf("unknown concentration mode %q (want \"abs\" or \"rel\")", s)
}

// Map computes the concentration series for the given intensity series.
// The first baseline samples are averaged per voxel to form the pre-contrast
// signal I0; every timestep then becomes k*(I-I0) or k*(I-I0)/I0 depending
// on the mode. Negative results are clamped to zero: concentration cannot
// be negative, so the clamp absorbs measurement noise.
//
// The returned series shares the input's dimensions, spacing, timeline and
// patient ID. The input is not modified.
func Map(s *models.Series, baseline int, k float64, mode Mode) (*models.Series, error) {
	if baseline <= 0 {
		return nil, fmt.Errorf("baseline length %d out of range, must be positive", baseline)
	}
	if baseline >= s.T {
		return nil, fmt.Errorf("baseline length %d out of range, series has %d time samples", baseline, s.T)
	}

	n := s.Voxels()

	// Per-voxel temporal mean over the baseline window
	base := make([]float64, n)
	for t := 0; t < baseline; t++ {
		floats.Add(base, s.Frame(t))
	}
	floats.Scale(1/float64(baseline), base)

	out := models.NewSeries(s.T, s.Z, s.Y, s.X)
	out.Spacing = s.Spacing
	out.Timeline = s.Timeline
	out.PatientID = s.PatientID

	for t := 0; t < s.T; t++ {
		src := s.Frame(t)
		dst := out.Frame(t)
		for vi := 0; vi < n; vi++ {
			v := k * (src[vi] - base[vi])
			if mode == Relative {
				if base[vi] == 0 {
					// No pre-contrast signal to normalize against
					v = 0
				} else {
					v /= base[vi]
				}
			}
			if v < 0 {
				v = 0
			}
			dst[vi] = v
		}
	}

	return out, nil
}
