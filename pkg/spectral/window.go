// Package spectral provides the 2D Fourier machinery used by the phase
// analysis: centred transforms, windowing and power spectra.
package spectral

import (
	"math"
	"math/cmplx"

	"gpastrain/internal/models"
)

// PreShift returns a copy of data with every cell multiplied by (-1)^(row+col).
// Transforming the result places the zero frequency at the array centre.
func PreShift(rows, cols int, data []complex128) []complex128 {
	out := make([]complex128, len(data))
	copy(out, data)
	checkerboard(rows, cols, out)
	return out
}

func checkerboard(rows, cols int, data []complex128) {
	for j := 0; j < rows; j++ {
		// first odd (row+col) in this row
		for i := (j + 1) & 1; i < cols; i += 2 {
			data[j*cols+i] = -data[j*cols+i]
		}
	}
}

// HannWeights returns the n-point Hann window 0.5*(1-cos(2*pi*k/(n-1)))
func HannWeights(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for k := range w {
		w[k] = 0.5 * (1 - math.Cos(2*math.Pi*float64(k)/float64(n-1)))
	}
	return w
}

// HannWindow applies a separable Hann window to img and returns the result
func HannWindow(img *models.ComplexField) *models.ComplexField {
	wy := HannWeights(img.Rows)
	wx := HannWeights(img.Cols)

	out := models.NewComplexField(img.Rows, img.Cols)
	for j := 0; j < img.Rows; j++ {
		for i := 0; i < img.Cols; i++ {
			idx := j*img.Cols + i
			out.Data[idx] = img.Data[idx] * complex(wy[j]*wx[i], 0)
		}
	}
	return out
}

// PowerSpectrum returns log10(1+|F|) for every cell of a spectrum
func PowerSpectrum(spectrum *models.ComplexField) *models.Field {
	ps := models.NewField(spectrum.Rows, spectrum.Cols)
	for i, v := range spectrum.Data {
		ps.Data[i] = math.Log10(1 + cmplx.Abs(v))
	}
	return ps
}
