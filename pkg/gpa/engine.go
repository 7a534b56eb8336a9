// Package gpa implements Geometric Phase Analysis: lattice distortion
// fields recovered from the phases of two Bragg spots of a periodic image.
package gpa

import (
	"fmt"

	"gpastrain/internal/models"
	"gpastrain/internal/parallel"
	"gpastrain/pkg/spectral"
)

// Engine owns an image and its centred spectrum, the two phase slots and
// the last computed distortion tensor.
//
// The transform plans are built once per engine and shared by every Phase
// it creates; they are released with the engine.
type Engine struct {
	image    *models.ComplexField
	spectrum *models.ComplexField

	plan     *spectral.Plan
	diffPlan *spectral.Plan
	workers  int

	phases [2]*Phase

	exx, exy, eyx, eyy *models.Field
	mode               Mode
}

// Option configures an Engine
type Option func(*Engine)

// WithWorkers bounds the goroutines used for per-pixel work and transforms.
// Values < 1 use every CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// New creates an engine for img and computes its spectrum. The image is copied.
func New(img *models.ComplexField, opts ...Option) (*Engine, error) {
	if err := validateImage(img); err != nil {
		return nil, err
	}

	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = parallel.DefaultWorkers()
	}

	e.image = img.Clone()
	e.plan = spectral.NewPlan(img.Rows, img.Cols, e.workers)
	e.diffPlan = spectral.NewPlan(img.Rows+2, img.Cols+2, e.workers)
	e.spectrum = &models.ComplexField{
		Data: e.plan.Forward(nil, e.image.Data),
		Rows: img.Rows,
		Cols: img.Cols,
	}
	return e, nil
}

// NewWindowed creates an engine for a Hann-windowed copy of img
func NewWindowed(img *models.ComplexField, opts ...Option) (*Engine, error) {
	if err := validateImage(img); err != nil {
		return nil, err
	}
	return New(spectral.HannWindow(img), opts...)
}

func validateImage(img *models.ComplexField) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrSizeMismatch)
	}
	if img.Rows < 0 || img.Cols < 0 || len(img.Data) != img.Rows*img.Cols {
		return fmt.Errorf("%w: %d values for %dx%d", ErrSizeMismatch, len(img.Data), img.Rows, img.Cols)
	}
	if img.Rows < 3 || img.Cols < 3 {
		return fmt.Errorf("%w: got %dx%d", ErrImageTooSmall, img.Rows, img.Cols)
	}
	return nil
}

// UpdateImage replaces the image with one of the same dimensions and
// recomputes the spectrum in place. Existing phases keep their g-vectors and
// see the new spectrum; their cached wrapped phases are dropped.
func (e *Engine) UpdateImage(img *models.ComplexField) error {
	if err := validateImage(img); err != nil {
		return err
	}
	if img.Rows != e.image.Rows || img.Cols != e.image.Cols {
		return fmt.Errorf("%w: %dx%d does not match %dx%d",
			ErrSizeMismatch, img.Rows, img.Cols, e.image.Rows, e.image.Cols)
	}

	e.image = img.Clone()
	e.plan.Forward(e.spectrum.Data, e.image.Data)
	for _, p := range e.phases {
		if p != nil {
			p.invalidate()
		}
	}
	return nil
}

// Image returns the engine's image. Callers must not modify it.
func (e *Engine) Image() *models.ComplexField { return e.image }

// FFT returns the centred spectrum shared with the phases. Callers must not modify it.
func (e *Engine) FFT() *models.ComplexField { return e.spectrum }

// Size returns the image size as (width, height)
func (e *Engine) Size() models.Coord2D[int] {
	return models.Coord2D[int]{X: e.image.Cols, Y: e.image.Rows}
}

// CalculatePhase creates or replaces phase slot i for the g-vector
// (gxPx, gyPx), given in spectrum pixels relative to the centre, with a
// Gaussian mask of width sigma.
func (e *Engine) CalculatePhase(i int, gxPx, gyPx, sigma float64) error {
	if i != 0 && i != 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPhaseIndex, i)
	}
	if !(sigma > 0) {
		return fmt.Errorf("%w: %g", ErrInvalidSigma, sigma)
	}

	e.phases[i] = newPhase(e.spectrum, e.plan, e.diffPlan, e.workers, gxPx, gyPx, sigma)
	return nil
}

// Phase returns phase slot i, which is nil until CalculatePhase has run for it
func (e *Engine) Phase(i int) (*Phase, error) {
	if i != 0 && i != 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPhaseIndex, i)
	}
	return e.phases[i], nil
}

// Exx returns the xx tensor component, or nil before CalculateDistortion
func (e *Engine) Exx() *models.Field { return e.exx }

// Exy returns the xy tensor component, or nil before CalculateDistortion
func (e *Engine) Exy() *models.Field { return e.exy }

// Eyx returns the yx tensor component, or nil before CalculateDistortion
func (e *Engine) Eyx() *models.Field { return e.eyx }

// Eyy returns the yy tensor component, or nil before CalculateDistortion
func (e *Engine) Eyy() *models.Field { return e.eyy }

// Mode returns the mode of the last successful CalculateDistortion
func (e *Engine) Mode() Mode { return e.mode }

// Fields returns the tensor components that carry information for the last
// computed mode, keyed by their output names (see FieldNames). It returns
// nil before CalculateDistortion.
func (e *Engine) Fields() map[string]*models.Field {
	if e.exx == nil {
		return nil
	}

	names := FieldNames(e.mode)
	var comps []*models.Field
	switch e.mode {
	case Distortion:
		comps = []*models.Field{e.exx, e.exy, e.eyx, e.eyy}
	case Strain:
		comps = []*models.Field{e.exx, e.exy, e.eyy}
	case Rotation:
		comps = []*models.Field{e.exy, e.eyx}
	case Dilatation:
		comps = []*models.Field{e.exx}
	}

	fields := make(map[string]*models.Field, len(names))
	for k, name := range names {
		fields[name] = comps[k]
	}
	return fields
}
