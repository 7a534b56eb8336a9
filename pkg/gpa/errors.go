package gpa

import "errors"

var (
	// ErrSizeMismatch is returned when an array length differs from rows*cols,
	// or when a replacement image has different dimensions
	ErrSizeMismatch = errors.New("gpa: image dimensions do not match array dimensions")

	// ErrImageTooSmall is returned for images with fewer than 3 rows or columns
	ErrImageTooSmall = errors.New("gpa: image must be at least 3x3")

	// ErrInvalidPhaseIndex is returned for phase indices other than 0 and 1
	ErrInvalidPhaseIndex = errors.New("gpa: phase index must be 0 or 1")

	// ErrMissingPhase is returned when distortion is requested before both
	// phases have been calculated
	ErrMissingPhase = errors.New("gpa: both phases must be calculated first")

	// ErrDegenerateBasis is returned when the two g-vectors are parallel or
	// too close to parallel to invert
	ErrDegenerateBasis = errors.New("gpa: g-vector basis is degenerate")

	// ErrRegressionFailure is returned when a refinement fit cannot be solved
	ErrRegressionFailure = errors.New("gpa: phase refinement regression failed")

	// ErrRegionOutOfBounds is returned when a refinement rectangle leaves the image
	ErrRegionOutOfBounds = errors.New("gpa: refinement region outside image")

	// ErrInvalidSigma is returned for mask widths that are not positive
	ErrInvalidSigma = errors.New("gpa: sigma must be positive")
)
