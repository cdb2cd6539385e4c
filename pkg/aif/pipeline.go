// Package aif extracts a deterministic arterial input function from a 4D
// dynamic contrast-enhanced series. The pipeline follows the voxel
// selection method of Tönnes et al. (Magnetic Resonance Imaging 75,
// 2021): brightest-voxel thresholding, binary opening, temporal peak
// alignment, connected-component extraction, Parker model fitting,
// cost-gated morphological refinement and region growing, and temporal
// clustering of the final mask's voxel curves.
package aif

import (
	"fmt"
	"math"

	"dceaif/internal/models"
	"dceaif/pkg/conc"
	"dceaif/pkg/config"
	"dceaif/pkg/morphology"
	"dceaif/pkg/parker"
	"dceaif/pkg/regions"
)

// Params holds the pipeline parameters. ParamsFromConfig fills it from
// the YAML configuration; the zero value is not usable.
type Params struct {
	// BaselineSamples is the number of leading pre-contrast time samples
	BaselineSamples int

	// ScaleFactor multiplies the baseline-subtracted signal
	ScaleFactor float64

	// Mode selects absolute ("abs") or relative ("rel") concentration
	Mode string

	// Window and RetryWindow are the primary and enlarged timestep
	// windows for voxel selection and peak alignment
	Window      int
	RetryWindow int

	// Percentile selects the brightest voxels
	Percentile float64

	// AreaThresholdML discards candidate regions at or below this
	// physical volume
	AreaThresholdML float64

	// FitTolerance and FitMaxIterations bound the Parker fit optimizer
	FitTolerance     float64
	FitMaxIterations int

	// GrowWindow and GrowQuantile steer flood-fill region growing
	GrowWindow   int
	GrowQuantile float64

	// ClusterCount and ClusterMaxIterations steer temporal clustering
	ClusterCount         int
	ClusterMaxIterations int

	// Verbose enables staged progress output
	Verbose bool
}

// ParamsFromConfig maps the application configuration onto pipeline
// parameters
func ParamsFromConfig(cfg *config.Config) *Params {
	return &Params{
		BaselineSamples:      cfg.Concentration.BaselineSamples,
		ScaleFactor:          cfg.Concentration.ScaleFactor,
		Mode:                 cfg.Concentration.Mode,
		Window:               cfg.Selection.Window,
		RetryWindow:          cfg.Selection.RetryWindow,
		Percentile:           cfg.Selection.Percentile,
		AreaThresholdML:      cfg.Selection.AreaThresholdML,
		FitTolerance:         cfg.Fit.Tolerance,
		FitMaxIterations:     cfg.Fit.MaxIterations,
		GrowWindow:           cfg.Refine.GrowWindow,
		GrowQuantile:         cfg.Refine.GrowQuantile,
		ClusterCount:         cfg.Cluster.Count,
		ClusterMaxIterations: cfg.Cluster.MaxIterations,
		Verbose:              cfg.Output.Verbose,
	}
}

// ClusterAssignment maps one final-mask voxel (by flat frame index) to
// its temporal cluster
type ClusterAssignment struct {
	VoxelIndex int
	ClusterID  int
}

// Result is the pipeline's output: the AIF curve, the diagnostic table
// and the state needed to render and persist them
type Result struct {
	// Curve is the arterial input function, one value per time sample
	Curve []float64

	// Timeline is the input timeline in seconds, same length as Curve
	Timeline []float64

	// PatientID is carried over from the input series
	PatientID string

	// DominantTimestep is the contrast-arrival timestep found by peak
	// alignment
	DominantTimestep int

	// Mask is the final voxel mask the AIF was read from
	Mask *models.Mask

	// Candidates lists every region that survived area filtering, in
	// ascending label order, annotated with fit results
	Candidates []*models.RegionCandidate

	// Best is the winning candidate region
	Best *models.RegionCandidate

	// CostAfterDilation and CostAfterRegionGrowing are the running best
	// costs after each refinement stage
	CostAfterDilation      float64
	CostAfterRegionGrowing float64

	// Assignments maps each final-mask voxel to its temporal cluster
	Assignments []ClusterAssignment

	// Table is the diagnostic table: one row per surviving candidate
	// plus one row for the best candidate carrying the refinement costs
	Table []*models.DiagnosticRow
}

// Pipeline runs the AIF extraction stages in sequence, carrying the
// working mask and the running best fit cost between them
type Pipeline struct {
	params *Params
}

// NewPipeline creates a new pipeline instance with the provided parameters
func NewPipeline(params *Params) *Pipeline {
	return &Pipeline{params: params}
}

func (p *Pipeline) logf(format string, args ...interface{}) {
	if p.params.Verbose {
		fmt.Printf(format+"\n", args...)
	}
}

// validate fails fast on parameters outside their required domain
func (p *Pipeline) validate(series *models.Series) error {
	if len(series.Timeline) != series.T {
		return fmt.Errorf("%w: timeline has %d entries for %d time samples", ErrInvalidParameter, len(series.Timeline), series.T)
	}
	if p.params.BaselineSamples <= 0 || p.params.BaselineSamples >= series.T {
		return fmt.Errorf("%w: baseline length %d out of range (series has %d time samples)",
			ErrInvalidParameter, p.params.BaselineSamples, series.T)
	}
	if p.params.Window <= 0 || p.params.Window >= series.T {
		return fmt.Errorf("%w: selection window %d out of range (series has %d time samples)",
			ErrInvalidParameter, p.params.Window, series.T)
	}
	// The retry window may exceed the series length; Process clamps it to
	// T before the retry, so only its relation to the primary window is
	// checked here
	if p.params.RetryWindow <= p.params.Window {
		return fmt.Errorf("%w: retry window %d must exceed the primary window %d",
			ErrInvalidParameter, p.params.RetryWindow, p.params.Window)
	}
	if p.params.Percentile <= 0 || p.params.Percentile >= 100 {
		return fmt.Errorf("%w: percentile %g out of range (0, 100)", ErrInvalidParameter, p.params.Percentile)
	}
	if p.params.GrowQuantile <= 0 || p.params.GrowQuantile >= 1 {
		return fmt.Errorf("%w: grow quantile %g out of range (0, 1)", ErrInvalidParameter, p.params.GrowQuantile)
	}
	if p.params.ClusterCount < 1 {
		return fmt.Errorf("%w: cluster count %d must be at least 1", ErrInvalidParameter, p.params.ClusterCount)
	}
	if _, err := conc.ParseMode(p.params.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	return nil
}

// Process runs the complete extraction pipeline on the series
func (p *Pipeline) Process(series *models.Series) (*Result, error) {
	if err := p.validate(series); err != nil {
		return nil, err
	}

	mode, _ := conc.ParseMode(p.params.Mode)

	// Step 1: Relative concentration
	p.logf("Step 1: Computing concentration map (%s mode, baseline %d)...", p.params.Mode, p.params.BaselineSamples)
	rel, err := conc.Map(series, p.params.BaselineSamples, p.params.ScaleFactor, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}

	// Step 2: Brightest voxels and binary opening
	p.logf("Step 2: Selecting brightest voxels (top %.1f%% over %d timesteps)...", p.params.Percentile, p.params.Window)
	bright, err := SelectBrightestVoxels(rel, p.params.Window, p.params.Percentile)
	if err != nil {
		return nil, err
	}
	opened := morphology.Open(bright)
	p.logf("         %d voxels selected, %d after opening", bright.Count(), opened.Count())

	// Step 3: Temporal peak alignment, retried once with a larger window.
	// Short series clamp the retry window to their own length.
	p.logf("Step 3: Aligning contrast-arrival peaks...")
	alignment, err := AlignPeaks(rel, opened, p.params.Window)
	if err != nil {
		retry := p.params.RetryWindow
		if retry > series.T {
			retry = series.T
		}
		p.logf("         Window of %d failed, retrying with %d...", p.params.Window, retry)
		alignment, err = AlignPeaks(rel, opened, retry)
	}
	if err != nil {
		return nil, err
	}
	p.logf("         Dominant arrival timestep: %d (%d voxels retained)", alignment.Timestep, alignment.Mask.Count())

	// Step 4: Connected components and area filtering
	p.logf("Step 4: Extracting candidate regions...")
	candidates := regions.Extract(alignment.Mask, alignment.Values, series.Spacing, p.params.AreaThresholdML)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no region above %.3f ml", ErrNoCandidateRegions, p.params.AreaThresholdML)
	}
	p.logf("         %d candidate regions above %.3f ml", len(candidates), p.params.AreaThresholdML)

	// The fit window is the first half of the timeline, in minutes.
	// Late-time behavior is unreliable and contaminated by recirculation.
	half := series.T / 2
	fitTimeline := make([]float64, half)
	for i := 0; i < half; i++ {
		fitTimeline[i] = series.Timeline[i] / 60
	}
	fitter := parker.NewFitter(p.params.FitTolerance, p.params.FitMaxIterations)

	// Step 5: Parker model fit per candidate; minimum cost wins, ties
	// broken by the first-encountered minimum in ascending label order
	p.logf("Step 5: Fitting Parker model to %d candidate curves...", len(candidates))
	var best *models.RegionCandidate
	for _, cand := range candidates {
		curve := regions.MeanCurve(rel, cand.Mask)[:half]
		fit, err := fitter.Fit(curve, fitTimeline)
		if err != nil {
			p.logf("         Region %d: fit failed (%v), skipping", cand.Label, err)
			continue
		}
		cand.Cost = fit.Cost
		cand.T1 = fit.Params.T1
		cand.T2 = fit.Params.T2
		p.logf("         Region %d: cost %.6f", cand.Label, cand.Cost)
		if best == nil || cand.Cost < best.Cost {
			best = cand
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: every candidate curve failed to fit", ErrNoCandidateRegions)
	}
	p.logf("         Best region: %d (cost %.6f)", best.Label, best.Cost)

	// Step 6: Morphological refinement, accepted only on strictly lower cost
	p.logf("Step 6: Morphological refinement...")
	morph := RefineMorphology(rel, best.Mask, best.Cost, fitter, fitTimeline)
	p.logf("         Cost after dilation: %.6f (accepted: %v)", morph.Cost, morph.Accepted)

	// Step 7: Region growing, gated on the cost carried in from step 6
	p.logf("Step 7: Flood-fill region growing...")
	grown := GrowRegion(rel, morph.Mask, morph.Cost, fitter, fitTimeline, p.params.GrowWindow, p.params.GrowQuantile)
	p.logf("         Cost after region growing: %.6f (accepted: %v)", grown.Cost, grown.Accepted)

	// Step 8: Temporal clustering of the final mask's voxel curves
	p.logf("Step 8: Clustering %d voxel time courses into %d cluster(s)...", grown.Mask.Count(), p.params.ClusterCount)
	curve, assignments, err := p.clusterCurves(rel, grown.Mask)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Curve:                  curve,
		Timeline:               series.Timeline,
		PatientID:              series.PatientID,
		DominantTimestep:       alignment.Timestep,
		Mask:                   grown.Mask,
		Candidates:             candidates,
		Best:                   best,
		CostAfterDilation:      morph.Cost,
		CostAfterRegionGrowing: grown.Cost,
		Assignments:            assignments,
	}
	result.Table = p.buildTable(result)
	return result, nil
}

// buildTable assembles the diagnostic table: every surviving candidate in
// ascending label order plus one best-candidate row carrying the
// refinement costs
func (p *Pipeline) buildTable(res *Result) []*models.DiagnosticRow {
	table := make([]*models.DiagnosticRow, 0, len(res.Candidates)+1)
	for _, c := range res.Candidates {
		table = append(table, &models.DiagnosticRow{
			Label:                  c.Label,
			AreaML:                 c.AreaML,
			ConvexAreaML:           c.ConvexAreaML,
			BBoxAreaML:             c.BBoxAreaML,
			Extent:                 c.Extent,
			MeanIntensity:          c.MeanIntensity,
			Solidity:               c.Solidity,
			Cost:                   c.Cost,
			T1:                     c.T1,
			T2:                     c.T2,
			CostAfterDilation:      math.NaN(),
			CostAfterRegionGrowing: math.NaN(),
			PatientID:              res.PatientID,
		})
	}
	b := res.Best
	table = append(table, &models.DiagnosticRow{
		Label:                  b.Label,
		AreaML:                 b.AreaML,
		ConvexAreaML:           b.ConvexAreaML,
		BBoxAreaML:             b.BBoxAreaML,
		Extent:                 b.Extent,
		MeanIntensity:          b.MeanIntensity,
		Solidity:               b.Solidity,
		Cost:                   b.Cost,
		T1:                     b.T1,
		T2:                     b.T2,
		CostAfterDilation:      res.CostAfterDilation,
		CostAfterRegionGrowing: res.CostAfterRegionGrowing,
		Best:                   true,
		PatientID:              res.PatientID,
	})
	return table
}
