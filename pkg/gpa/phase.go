package gpa

import (
	"fmt"
	"math"
	"math/cmplx"

	"gpastrain/internal/models"
	"gpastrain/internal/parallel"
	"gpastrain/pkg/regression"
	"gpastrain/pkg/spectral"
)

// Phase demodulates the neighbourhood of one Bragg spot of a shared
// spectrum and exposes the resulting phase field, its gradient and a
// regression-based refinement of the spot's g-vector.
//
// The spectrum and transform plans are owned by the Engine that created
// the Phase and are only read here. A Phase is not safe for concurrent use.
type Phase struct {
	spectrum *models.ComplexField
	plan     *spectral.Plan
	diffPlan *spectral.Plan
	workers  int

	// g-vector in pixels relative to the spectrum centre, and as
	// fractional frequencies gx = gxPx/cols, gy = gyPx/rows
	gxPx, gyPx float64
	gx, gy     float64

	sigma float64

	// normPhase caches the last wrapped phase; nil until WrappedPhase runs
	normPhase *models.Field
}

func newPhase(spectrum *models.ComplexField, plan, diffPlan *spectral.Plan, workers int, gxPx, gyPx, sigma float64) *Phase {
	p := &Phase{
		spectrum: spectrum,
		plan:     plan,
		diffPlan: diffPlan,
		workers:  workers,
		gxPx:     gxPx,
		gyPx:     gyPx,
		sigma:    sigma,
	}
	p.updateFractional()
	return p
}

func (p *Phase) updateFractional() {
	p.gx = p.gxPx / float64(p.spectrum.Cols)
	p.gy = p.gyPx / float64(p.spectrum.Rows)
}

// invalidate drops the cached wrapped phase
func (p *Phase) invalidate() {
	p.normPhase = nil
}

// Sigma returns the Gaussian mask width in pixels
func (p *Phase) Sigma() float64 { return p.sigma }

// GVector returns the fractional g-vector (gx, gy)
func (p *Phase) GVector() models.Coord2D[float64] {
	return models.Coord2D[float64]{X: p.gx, Y: p.gy}
}

// GVectorPixels returns the g-vector in spectrum pixels relative to the centre
func (p *Phase) GVectorPixels() models.Coord2D[float64] {
	return models.Coord2D[float64]{X: p.gxPx, Y: p.gyPx}
}

// GaussianMask returns a Gaussian of width sigma centred on the g-vector's
// position in the centred spectrum. The mask is 1 at its own centre.
func (p *Phase) GaussianMask() *models.Field {
	rows, cols := p.spectrum.Rows, p.spectrum.Cols
	xf := p.gxPx + float64(cols/2)
	yf := p.gyPx + float64(rows/2)
	twoSigma2 := 2 * p.sigma * p.sigma

	mask := models.NewField(rows, cols)
	parallel.For(p.workers, rows, func(start, end int) {
		for j := start; j < end; j++ {
			yc := float64(j) - yf
			for i := 0; i < cols; i++ {
				xc := float64(i) - xf
				mask.Data[j*cols+i] = math.Exp(-(xc*xc + yc*yc) / twoSigma2)
			}
		}
	})
	return mask
}

// MaskedFFT returns the spectrum multiplied elementwise by the Gaussian mask
func (p *Phase) MaskedFFT() *models.ComplexField {
	mask := p.GaussianMask()
	masked := models.NewComplexField(p.spectrum.Rows, p.spectrum.Cols)

	parallel.For(p.workers, len(masked.Data), func(start, end int) {
		for k := start; k < end; k++ {
			masked.Data[k] = p.spectrum.Data[k] * complex(mask.Data[k], 0)
		}
	})
	return masked
}

// demodulate returns the inverse transform of the masked spectrum
func (p *Phase) demodulate() []complex128 {
	return p.plan.Inverse(nil, p.MaskedFFT().Data)
}

// BraggImage returns the real-space image of the masked Bragg spot. The
// factor 2 restores the amplitude of the conjugate spot that the mask drops.
func (p *Phase) BraggImage() *models.Field {
	ifft := p.demodulate()
	n := float64(len(ifft))

	bragg := models.NewField(p.spectrum.Rows, p.spectrum.Cols)
	parallel.For(p.workers, len(ifft), func(start, end int) {
		for k := start; k < end; k++ {
			bragg.Data[k] = 2 * real(ifft[k]) / n
		}
	})
	return bragg
}

// RawPhase returns the argument of the demodulated signal. No normalisation
// of the inverse transform is needed since only the angle is kept.
func (p *Phase) RawPhase() *models.Field {
	ifft := p.demodulate()

	phase := models.NewField(p.spectrum.Rows, p.spectrum.Cols)
	parallel.For(p.workers, len(ifft), func(start, end int) {
		for k := start; k < end; k++ {
			phase.Data[k] = cmplx.Phase(ifft[k])
		}
	})
	return phase
}

// Phase returns the raw phase with the nominal lattice ramp
// 2*pi*(x*gx + y*gy) removed
func (p *Phase) Phase() *models.Field {
	phase := p.RawPhase()
	cols := phase.Cols

	parallel.For(p.workers, phase.Rows, func(start, end int) {
		for j := start; j < end; j++ {
			for i := 0; i < cols; i++ {
				phase.Data[j*cols+i] -= 2 * math.Pi * (float64(i)*p.gx + float64(j)*p.gy)
			}
		}
	})
	return phase
}

// WrappedPhase returns Phase reduced to (-pi, pi]. The result is cached and
// used by Differential and Refine.
func (p *Phase) WrappedPhase() *models.Field {
	phase := p.Phase()

	parallel.For(p.workers, len(phase.Data), func(start, end int) {
		for k := start; k < end; k++ {
			phase.Data[k] = wrap(phase.Data[k])
		}
	})

	p.normPhase = phase
	return phase.Clone()
}

func wrap(phi float64) float64 {
	phi -= math.Round(phi/(2*math.Pi)) * 2 * math.Pi
	if phi <= -math.Pi {
		phi += 2 * math.Pi
	}
	return phi
}

func (p *Phase) wrappedPhase() *models.Field {
	if p.normPhase == nil {
		p.WrappedPhase()
	}
	return p.normPhase
}

// Differential returns the gradient of the unwrapped phase, rotated by
// angle degrees.
//
// The derivative is taken as Im(exp(-i*phi) * d/dx exp(i*phi)), with the
// d/dx computed as an FFT convolution of the zero-padded exp(i*phi) with a
// 3x3 difference kernel. This never differences the wrapped phase directly,
// so 2*pi jumps do not show up in the gradient.
func (p *Phase) Differential(angle float64) (dx, dy *models.Field) {
	phase := p.wrappedPhase()
	rows, cols := phase.Rows, phase.Cols
	pr, pc := rows+2, cols+2

	// exp(i*phi) with a one cell zero border
	expPhase := make([]complex128, pr*pc)
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			expPhase[(j+1)*pc+i+1] = cmplx.Exp(complex(0, phase.Data[j*cols+i]))
		}
	}

	// 3x3 difference kernels in the top left corner of the padded grid
	kx := make([]complex128, pr*pc)
	ky := make([]complex128, pr*pc)
	for k := 0; k < 3; k++ {
		kx[k*pc+0] = 1
		kx[k*pc+2] = -1
		ky[0*pc+k] = 1
		ky[2*pc+k] = -1
	}

	var fPhase, fx, fy []complex128
	parallel.Do(
		func() { fPhase = p.diffPlan.DFT(nil, expPhase) },
		func() { fx = p.diffPlan.DFT(nil, kx) },
		func() { fy = p.diffPlan.DFT(nil, ky) },
	)

	for k := range fPhase {
		fx[k] *= fPhase[k]
		fy[k] *= fPhase[k]
	}

	var cx, cy []complex128
	parallel.Do(
		func() { cx = p.diffPlan.IDFT(nil, fx) },
		func() { cy = p.diffPlan.IDFT(nil, fy) },
	)

	// the kernel origin sits one cell up-left of its centre, so the
	// convolution for padded cell (j, i) lands at (j+1, i+1)
	norm := complex(float64(pr*pc)*6, 0)
	rot := rotationMatrix(angle)

	dx = models.NewField(rows, cols)
	dy = models.NewField(rows, cols)
	parallel.For(p.workers, rows, func(start, end int) {
		for j := start; j < end; j++ {
			for i := 0; i < cols; i++ {
				ph := cmplx.Conj(expPhase[(j+1)*pc+i+1])
				c := (j+2)*pc + i + 2
				ddx := imag(ph * cx[c] / norm)
				ddy := imag(ph * cy[c] / norm)

				dx.Data[j*cols+i] = rot[0][0]*ddx + rot[0][1]*ddy
				dy.Data[j*cols+i] = rot[1][0]*ddx + rot[1][1]*ddy
			}
		}
	})
	return dx, dy
}

// Refine fits a plane to the wrapped phase inside rect and moves the
// g-vector so that the fitted gradient is removed. On error the g-vector
// is left unchanged.
func (p *Phase) Refine(rect models.Rect) error {
	phase := p.wrappedPhase()
	row0, col0, row1, col1 := rect.Bounds()
	if row0 < 0 || col0 < 0 || row1 > phase.Rows || col1 > phase.Cols {
		return fmt.Errorf("%w: rows [%d,%d) cols [%d,%d) in %dx%d",
			ErrRegionOutOfBounds, row0, row1, col0, col1, phase.Rows, phase.Cols)
	}

	h, w := row1-row0, col1-col0
	area := make([]float64, h*w)
	for j := 0; j < h; j++ {
		copy(area[j*w:(j+1)*w], phase.Data[(j+row0)*phase.Cols+col0:(j+row0)*phase.Cols+col1])
	}

	_, slopeX, slopeY, err := regression.Plane(area, h, w, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRegressionFailure, err)
	}

	p.gxPx += slopeX / (2 * math.Pi) * float64(p.spectrum.Cols)
	p.gyPx += slopeY / (2 * math.Pi) * float64(p.spectrum.Rows)
	p.updateFractional()
	p.invalidate()
	return nil
}
