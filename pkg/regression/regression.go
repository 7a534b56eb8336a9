// Package regression implements weighted linear least squares.
package regression

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrTooFewSamples is returned when there are fewer samples than coefficients
	ErrTooFewSamples = errors.New("regression: fewer samples than coefficients")

	// ErrSingular is returned when the normal equations cannot be solved,
	// e.g. when the samples are collinear
	ErrSingular = errors.New("regression: normal equations are singular")

	// ErrBadWeights is returned for negative, NaN or mismatched weights
	ErrBadWeights = errors.New("regression: invalid weights")
)

// Linear solves the weighted least-squares problem min sum w_k (y_k - x_k.c)^2.
//
// Parameters:
//   - y: the m observations
//   - x: the m x n design matrix, one row per observation
//   - w: the m non-negative weights, or nil for uniform weighting
//
// Returns the n fitted coefficients.
func Linear(y []float64, x *mat.Dense, w []float64) ([]float64, error) {
	m, n := x.Dims()
	if len(y) != m {
		return nil, fmt.Errorf("regression: %d observations for %d design rows", len(y), m)
	}
	if m < n {
		return nil, ErrTooFewSamples
	}
	if w != nil && len(w) != m {
		return nil, ErrBadWeights
	}

	// Accumulate X^T W X and X^T W y
	normal := mat.NewSymDense(n, nil)
	rhs := mat.NewVecDense(n, nil)
	for k := 0; k < m; k++ {
		wk := 1.0
		if w != nil {
			wk = w[k]
			if wk < 0 || math.IsNaN(wk) {
				return nil, ErrBadWeights
			}
		}
		if wk == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			xi := x.At(k, i)
			rhs.SetVec(i, rhs.AtVec(i)+wk*xi*y[k])
			for j := i; j < n; j++ {
				normal.SetSym(i, j, normal.At(i, j)+wk*xi*x.At(k, j))
			}
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(normal); !ok {
		return nil, ErrSingular
	}

	coeffs := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(coeffs, rhs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = coeffs.AtVec(i)
	}
	return out, nil
}

// Plane fits z(x, y) = c0 + c1*x + c2*y to a rows x cols grid stored in
// row-major order, with x the column index and y the row index.
// w may be nil for uniform weights.
func Plane(z []float64, rows, cols int, w []float64) (c0, c1, c2 float64, err error) {
	if len(z) != rows*cols {
		return 0, 0, 0, fmt.Errorf("regression: grid of %d values is not %dx%d", len(z), rows, cols)
	}

	if rows*cols < 3 {
		return 0, 0, 0, ErrTooFewSamples
	}

	design := mat.NewDense(rows*cols, 3, nil)
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			k := j*cols + i
			design.Set(k, 0, 1)
			design.Set(k, 1, float64(i))
			design.Set(k, 2, float64(j))
		}
	}

	c, err := Linear(z, design, w)
	if err != nil {
		return 0, 0, 0, err
	}
	return c[0], c[1], c[2], nil
}
