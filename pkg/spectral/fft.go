package spectral

import (
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"gpastrain/internal/parallel"
)

// Plan performs 2D Fourier transforms of a fixed size as a pass of 1D
// transforms over every row followed by a pass over every column.
//
// A Plan is built once and shared by everything that transforms arrays of
// its size. It is safe for concurrent use; each goroutine borrows its own
// 1D transform from a pool.
type Plan struct {
	rows    int
	cols    int
	workers int

	rowFFTs sync.Pool
	colFFTs sync.Pool
}

// NewPlan creates a plan for rows x cols arrays. workers bounds the number
// of goroutines used per pass; values < 1 use every CPU.
func NewPlan(rows, cols, workers int) *Plan {
	if workers < 1 {
		workers = parallel.DefaultWorkers()
	}
	p := &Plan{
		rows:    rows,
		cols:    cols,
		workers: workers,
	}
	p.rowFFTs.New = func() any { return fourier.NewCmplxFFT(cols) }
	p.colFFTs.New = func() any { return fourier.NewCmplxFFT(rows) }
	return p
}

// Rows returns the number of rows the plan transforms
func (p *Plan) Rows() int { return p.rows }

// Cols returns the number of columns the plan transforms
func (p *Plan) Cols() int { return p.cols }

// Forward applies the checkerboard pre-shift to src and transforms it, so
// the zero-frequency term lands at (rows/2, cols/2) of the result. On an odd
// axis the shift is half a bin off, so spots no longer sit on integer
// pixels; phase analysis needs even dimensions even though Inverse still
// round-trips exactly.
//
// If dst is nil a new slice is allocated. src is not modified.
func (p *Plan) Forward(dst, src []complex128) []complex128 {
	return p.transform(dst, PreShift(p.rows, p.cols, src), true)
}

// Inverse undoes Forward: it runs the unnormalised inverse transform and
// then re-applies the checkerboard sign. Callers divide by rows*cols where
// the physical amplitude matters.
func (p *Plan) Inverse(dst, src []complex128) []complex128 {
	dst = p.transform(dst, src, false)
	checkerboard(p.rows, p.cols, dst)
	return dst
}

// DFT is the plain unnormalised forward transform with no shift.
func (p *Plan) DFT(dst, src []complex128) []complex128 {
	return p.transform(dst, src, true)
}

// IDFT is the plain unnormalised inverse transform with no shift.
func (p *Plan) IDFT(dst, src []complex128) []complex128 {
	return p.transform(dst, src, false)
}

func (p *Plan) transform(dst, src []complex128, forward bool) []complex128 {
	n := p.rows * p.cols
	if len(src) != n {
		panic("spectral: input length mismatch")
	}
	if dst == nil {
		dst = make([]complex128, n)
	} else if len(dst) != n {
		panic("spectral: destination length mismatch")
	}
	copy(dst, src)

	// Row-wise pass
	parallel.For(p.workers, p.rows, func(start, end int) {
		fft := p.rowFFTs.Get().(*fourier.CmplxFFT)
		defer p.rowFFTs.Put(fft)

		for r := start; r < end; r++ {
			row := dst[r*p.cols : (r+1)*p.cols]
			if forward {
				fft.Coefficients(row, row)
			} else {
				fft.Sequence(row, row)
			}
		}
	})

	// Column-wise pass on the row results
	parallel.For(p.workers, p.cols, func(start, end int) {
		fft := p.colFFTs.Get().(*fourier.CmplxFFT)
		defer p.colFFTs.Put(fft)

		col := make([]complex128, p.rows)
		for c := start; c < end; c++ {
			for r := 0; r < p.rows; r++ {
				col[r] = dst[r*p.cols+c]
			}
			if forward {
				fft.Coefficients(col, col)
			} else {
				fft.Sequence(col, col)
			}
			for r := 0; r < p.rows; r++ {
				dst[r*p.cols+c] = col[r]
			}
		}
	})

	return dst
}
