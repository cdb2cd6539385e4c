package aif

import "errors"

// Structural failure sentinels. Stage-local numerical failures (a fit that
// diverges, a refinement that makes things worse) are absorbed by falling
// back to the last accepted mask and cost; only these structural failures
// reach the caller.
var (
	// ErrInvalidParameter reports a caller-supplied window length,
	// percentile or baseline length outside its required domain. Detected
	// before any computation and never retried.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrTemporalAlignment reports that the dominant contrast-arrival
	// timestep fell on a window boundary for every attempted window size,
	// so no AIF can be determined.
	ErrTemporalAlignment = errors.New("no usable temporal signal")

	// ErrNoCandidateRegions reports that region extraction produced no
	// region above the area threshold, or that no extracted region's
	// curve could be fitted at all.
	ErrNoCandidateRegions = errors.New("no candidate regions")
)
