package gpa

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"gpastrain/internal/models"
)

// fringeImage returns cos(2*pi*k*x/cols + phi0) on a rows x cols grid
func fringeImage(rows, cols int, k, phi0 float64) *models.ComplexField {
	img := models.NewComplexField(rows, cols)
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			v := math.Cos(2*math.Pi*k*float64(i)/float64(cols) + phi0)
			img.Set(j, i, complex(v, 0))
		}
	}
	return img
}

// latticeFringes returns cos(2*pi*(kx*x/cols + ky*y/rows) + phi0)
func latticeFringes(rows, cols int, kx, ky, phi0 float64) *models.ComplexField {
	img := models.NewComplexField(rows, cols)
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			v := math.Cos(2*math.Pi*(kx*float64(i)/float64(cols)+ky*float64(j)/float64(rows)) + phi0)
			img.Set(j, i, complex(v, 0))
		}
	}
	return img
}

// rampField returns wrap(sx*x + sy*y + c)
func rampField(rows, cols int, sx, sy, c float64) *models.Field {
	f := models.NewField(rows, cols)
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			f.Set(j, i, wrap(sx*float64(i)+sy*float64(j)+c))
		}
	}
	return f
}

func newTestEngine(t *testing.T, img *models.ComplexField) *Engine {
	t.Helper()
	e, err := New(img, WithWorkers(2))
	require.NoError(t, err)
	return e
}

// interior visits every cell at least margin cells away from the border
func interior(f *models.Field, margin int, fn func(j, i int, v float64)) {
	for j := margin; j < f.Rows-margin; j++ {
		for i := margin; i < f.Cols-margin; i++ {
			fn(j, i, f.At(j, i))
		}
	}
}
